// Package harness finds out which of the services under test are reachable before any tests run.
package harness

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agroweb/integration-harness/framework"
	"github.com/agroweb/integration-harness/framework/helpers"
)

const (
	probeInterval       = time.Millisecond * 250
	httpListenerTimeout = time.Second * 10
)

// ServiceTarget describes one thing to probe. If the GET request to BaseURL+ProbePath returns one
// of the AcceptStatus codes (or any 2xx if AcceptStatus is empty) before the timeout, the target's
// Name becomes a capability.
type ServiceTarget struct {
	Name         string
	BaseURL      string
	ProbePath    string
	AcceptStatus []int
}

// ServiceInfo is what the probe found out about one target.
type ServiceInfo struct {
	Name       string
	URL        string
	Available  bool
	StatusCode int
	Body       []byte
	Elapsed    time.Duration
	LastError  error
}

// Harness holds the probe results for the run.
type Harness struct {
	services []ServiceInfo
	logger   framework.Logger
}

// Probe polls every target concurrently until each answers or statusQueryTimeout elapses. An
// unreachable target is not an error; it only means that suites needing it will be skipped. A
// line per target is written to startupOutput.
func Probe(
	ctx context.Context,
	targets []ServiceTarget,
	statusQueryTimeout time.Duration,
	debugLogger framework.Logger,
	startupOutput io.Writer,
) *Harness {
	if debugLogger == nil {
		debugLogger = framework.NullLogger()
	}
	h := &Harness{services: make([]ServiceInfo, len(targets)), logger: debugLogger}

	var g errgroup.Group
	var outputLock sync.Mutex
	for i, target := range targets {
		g.Go(func() error {
			info := probeTarget(ctx, target, statusQueryTimeout, debugLogger)
			h.services[i] = info
			outputLock.Lock()
			defer outputLock.Unlock()
			if info.Available {
				fmt.Fprintf(startupOutput, "  %-20s %s (HTTP %d, %s)\n", info.Name, info.URL, info.StatusCode,
					info.Elapsed.Round(time.Millisecond))
			} else {
				fmt.Fprintf(startupOutput, "  %-20s %s NOT AVAILABLE: %s\n", info.Name, info.URL, describeFailure(info))
			}
			return nil
		})
	}
	_ = g.Wait()
	return h
}

func probeTarget(ctx context.Context, target ServiceTarget, timeout time.Duration, logger framework.Logger) ServiceInfo {
	info := ServiceInfo{Name: target.Name, URL: target.BaseURL + target.ProbePath}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	accepted := func(status int) bool {
		if len(target.AcceptStatus) == 0 {
			return status >= 200 && status < 300
		}
		return helpers.SliceContains(status, target.AcceptStatus)
	}

	started := time.Now()
	for {
		status, body, err := doRequest(ctx, http.MethodGet, info.URL)
		if err == nil {
			info.StatusCode, info.Body = status, body
			logger.Printf("Probe %s returned HTTP %d", info.URL, status)
			if accepted(status) {
				info.Available = true
				info.Elapsed = time.Since(started)
				return info
			}
		} else {
			info.LastError = err
		}
		select {
		case <-ctx.Done():
			info.Elapsed = time.Since(started)
			return info
		case <-time.After(probeInterval):
		}
	}
}

func describeFailure(info ServiceInfo) string {
	if info.StatusCode != 0 {
		return fmt.Sprintf("unexpected status %d", info.StatusCode)
	}
	if info.LastError != nil {
		return info.LastError.Error()
	}
	return "timed out"
}

// Capabilities returns the names of the targets that answered.
func (h *Harness) Capabilities() framework.Capabilities {
	var ret framework.Capabilities
	for _, s := range h.services {
		if s.Available {
			ret = ret.With(s.Name)
		}
	}
	return ret
}

// ExpectedCapabilities returns the names of all probed targets, whether or not they answered.
func (h *Harness) ExpectedCapabilities() framework.Capabilities {
	var ret framework.Capabilities
	for _, s := range h.services {
		ret = ret.With(s.Name)
	}
	return ret
}

// ServiceInfo returns the probe result for the named target.
func (h *Harness) ServiceInfo(name string) (ServiceInfo, bool) {
	for _, s := range h.services {
		if s.Name == name {
			return s, true
		}
	}
	return ServiceInfo{}, false
}

func doRequest(ctx context.Context, method, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close() //nolint:errcheck
	body, err := io.ReadAll(resp.Body)
	return resp.StatusCode, body, err
}

// StartServer serves handler on the given port (0 picks a free one) in the background and waits
// until it accepts requests. It returns the server and its base URL. The harness uses it to host
// the in-memory mock services when no live deployment is available.
func StartServer(port int, handler http.Handler) (*http.Server, string, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, "", err
	}
	baseURL := fmt.Sprintf("http://localhost:%d", listener.Addr().(*net.TCPAddr).Port)
	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead && r.URL.Path == "/" {
				w.WriteHeader(http.StatusOK)
				return
			}
			handler.ServeHTTP(w, r)
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), httpListenerTimeout)
	defer cancel()
	ticker := time.NewTicker(time.Millisecond * 10)
	defer ticker.Stop()
	for {
		select {
		case err := <-serveErr:
			return nil, "", err
		case <-ctx.Done():
			_ = server.Close()
			return nil, "", fmt.Errorf("could not detect own listener at %s", baseURL)
		case <-ticker.C:
			if _, _, err := doRequest(ctx, http.MethodHead, baseURL+"/"); err == nil {
				return server, baseURL, nil
			}
		}
	}
}
