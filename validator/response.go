package validator

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// DefaultMaxResponseTimeMs is the ResponseTime limit used when none is given.
const DefaultMaxResponseTimeMs = 5000

// Response is what the validators need to know about an HTTP response.
type Response interface {
	Status() int
	HeaderValue(name string) string
	RawBody() []byte
}

// StaticResponse is a Response made from literal values.
type StaticResponse struct {
	Code    int
	Headers http.Header
	Body    []byte
}

func (s StaticResponse) Status() int                    { return s.Code }
func (s StaticResponse) HeaderValue(name string) string { return s.Headers.Get(name) }
func (s StaticResponse) RawBody() []byte                { return s.Body }

// HTTPStatus checks the status code.
func HTTPStatus(resp Response, expected int) Result {
	var f findings
	if resp.Status() != expected {
		f.add("Expected HTTP status %d, got %d", expected, resp.Status())
	}
	return f.result()
}

// JSONBody parses the response body. If it is not valid JSON, the returned value is null and the
// Result explains why; callers must check the Result before using the value.
func JSONBody(resp Response) (ldvalue.Value, Result) {
	var f findings
	var v ldvalue.Value
	if err := json.Unmarshal(resp.RawBody(), &v); err != nil {
		f.add("Invalid JSON response: %s", err)
		return ldvalue.Null(), f.result()
	}
	return v, f.result()
}

// ContentType checks that the Content-Type header contains expected, or "application/json" if
// expected is empty.
func ContentType(resp Response, expected string) Result {
	if expected == "" {
		expected = "application/json"
	}
	var f findings
	actual := resp.HeaderValue("Content-Type")
	if !strings.Contains(actual, expected) {
		f.add("Expected Content-Type '%s', got '%s'", expected, actual)
	}
	return f.result()
}

// ResponseTime checks a latency against a limit in milliseconds; a limit of zero or less means
// DefaultMaxResponseTimeMs.
func ResponseTime(ms, maxMs float64) Result {
	if maxMs <= 0 {
		maxMs = DefaultMaxResponseTimeMs
	}
	var f findings
	if ms > maxMs {
		f.add("Response time too slow: %.2fms (max: %sms)", ms, formatNumber(maxMs))
	}
	return f.result()
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
