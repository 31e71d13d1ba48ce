// Package clients contains thin HTTP clients for the AgroWeb services. They do not interpret
// responses beyond reading them; checking status codes and bodies is left to the caller, since
// error responses are often exactly what a test wants.
package clients

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/agroweb/integration-harness/framework"
	"github.com/agroweb/integration-harness/framework/helpers"
)

// Bodies shorter than this are written to the debug log.
const maxLoggedBodySize = 1000

// Response is a fully read HTTP response. It implements validator.Response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Elapsed    time.Duration
}

func (r *Response) Status() int                    { return r.StatusCode }
func (r *Response) HeaderValue(name string) string { return r.Header.Get(name) }
func (r *Response) RawBody() []byte                { return r.Body }

// ElapsedMs is the time taken by the request in milliseconds.
func (r *Response) ElapsedMs() float64 {
	return float64(r.Elapsed) / float64(time.Millisecond)
}

// JSON parses the body; it returns a null value if the body is not JSON.
func (r *Response) JSON() ldvalue.Value {
	return ldvalue.Parse(r.Body)
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

type clientConfig struct {
	httpClient *http.Client
	timeout    time.Duration
	logger     framework.Logger
}

// ClientOption customizes a client.
type ClientOption = helpers.ConfigOptionFunc[clientConfig]

// WithHTTPClient makes the client send requests through hc instead of a client of its own.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *clientConfig) error {
		c.httpClient = hc
		return nil
	}
}

// WithTimeout sets the overall timeout for each request.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *clientConfig) error {
		c.timeout = timeout
		return nil
	}
}

// WithLogger sets where requests and responses are logged.
func WithLogger(logger framework.Logger) ClientOption {
	return func(c *clientConfig) error {
		c.logger = logger
		return nil
	}
}

// BaseClient sends requests to one service with the headers every AgroWeb client sends.
type BaseClient struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     framework.Logger
}

// NewBaseClient creates a client for the service at baseURL.
func NewBaseClient(baseURL, userAgent string, options ...ClientOption) *BaseClient {
	var cfg clientConfig
	_ = helpers.ApplyOptions(&cfg, options...)
	if cfg.logger == nil {
		cfg.logger = framework.NullLogger()
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{Timeout: cfg.timeout}
	}
	return &BaseClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: cfg.httpClient,
		logger:     cfg.logger,
	}
}

// BaseURL returns the service base URL, without a trailing slash.
func (c *BaseClient) BaseURL() string { return c.baseURL }

// Do sends a request to the path relative to the base URL. The default Content-Type and Accept
// headers are application/json; headers overrides them and adds others. An error is returned
// only if no response was received.
func (c *BaseClient) Do(ctx context.Context, method, path string, body []byte, headers http.Header) (*Response, error) {
	url := c.baseURL + path
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	for name, values := range headers {
		req.Header[name] = values
	}

	c.logger.Printf("%s %s", method, url)
	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Printf("%s %s failed: %s", method, url, err)
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close() //nolint:errcheck
	respBody, err := io.ReadAll(resp.Body)
	elapsed := time.Since(started)
	if err != nil {
		return nil, fmt.Errorf("reading response to %s %s: %w", method, url, err)
	}

	c.logger.Printf("Response: HTTP %d, %d bytes, %s", resp.StatusCode, len(respBody), elapsed.Round(time.Microsecond))
	if len(respBody) > 0 && len(respBody) < maxLoggedBodySize {
		c.logger.Printf("Response body: %s", string(respBody))
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: respBody, Elapsed: elapsed}, nil
}

// DoJSON sends body as JSON.
func (c *BaseClient) DoJSON(ctx context.Context, method, path string, body ldvalue.Value) (*Response, error) {
	return c.Do(ctx, method, path, []byte(body.JSONString()), nil)
}

// Get sends a GET request to any path, such as one that is expected not to exist.
func (c *BaseClient) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil, nil)
}
