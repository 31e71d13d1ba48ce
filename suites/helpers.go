package suites

import (
	"context"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agroweb/integration-harness/clients"
	"github.com/agroweb/integration-harness/framework/agtest"
	"github.com/agroweb/integration-harness/validator"
)

// call makes one request, fails the test if no response was received, and records the latency
// under endpoint.
func call(t *agtest.T, endpoint string, fn func(context.Context) (*clients.Response, error)) *clients.Response {
	t.Helper()
	resp, err := fn(context.Background())
	require.NoError(t, err)
	environment(t).Timings.Record(endpoint, resp.Elapsed)
	return resp
}

func requireValid(t *agtest.T, r validator.Result) {
	t.Helper()
	if !r.OK {
		require.Fail(t, r.String())
	}
}

func assertValid(t *agtest.T, r validator.Result) bool {
	t.Helper()
	if !r.OK {
		return assert.Fail(t, r.String())
	}
	return true
}

func logWarnings(t *agtest.T, r validator.Result) {
	for _, w := range r.Warnings {
		t.Debug("warning: %s", w)
	}
}

func requireStatus(t *agtest.T, resp *clients.Response, expected int) {
	t.Helper()
	if !validator.HTTPStatus(resp, expected).OK {
		require.Fail(t, "unexpected status", "expected %d, got %d: %s", expected, resp.StatusCode, resp.Text())
	}
}

func requireStatusIn(t *agtest.T, resp *clients.Response, expected ...int) {
	t.Helper()
	require.Contains(t, expected, resp.StatusCode, "response body: %s", resp.Text())
}

func isStatus(resp *clients.Response, statuses ...int) bool {
	for _, s := range statuses {
		if resp.StatusCode == s {
			return true
		}
	}
	return false
}

// requireJSON parses the body, failing the test if it is not JSON.
func requireJSON(t *agtest.T, resp *clients.Response) ldvalue.Value {
	t.Helper()
	v, r := validator.JSONBody(resp)
	requireValid(t, r)
	return v
}

func assertResponseTime(t *agtest.T, resp *clients.Response, maxMs float64) {
	t.Helper()
	assertValid(t, validator.ResponseTime(resp.ElapsedMs(), maxMs))
}

// errorMessage is the lowercased "error" or "message" property of an error body.
func errorMessage(v ldvalue.Value) string {
	for _, key := range []string{"error", "message"} {
		if s := v.GetByKey(key); s.IsString() {
			return strings.ToLower(s.StringValue())
		}
	}
	return ""
}

// assertMessageMentions checks that an error message contains at least one of the substrings,
// which must be lowercase.
func assertMessageMentions(t *agtest.T, message string, substrings ...string) {
	t.Helper()
	for _, s := range substrings {
		if strings.Contains(message, s) {
			return
		}
	}
	assert.Fail(t, "error message does not explain the problem",
		"message %q should mention one of %q", message, substrings)
}
