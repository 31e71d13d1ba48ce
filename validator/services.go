package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

var prometheusSamplePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\{.*\})?\s+\S+$`)

// DefaultExpectedMetrics are the metric names the productos service must export.
func DefaultExpectedMetrics() []string {
	return []string{
		"productos_requests_total",
		"productos_request_duration_seconds",
		"productos_errors_total",
	}
}

// HealthResponse checks the body of GET /health.
func HealthResponse(v ldvalue.Value) Result {
	var f findings
	for _, field := range []string{"status", "service", "version", "metrics_endpoint"} {
		if _, ok := v.TryGetByKey(field); !ok {
			f.add("Health response missing field: '%s'", field)
		}
	}
	if !v.GetByKey("status").Equal(ldvalue.String("healthy")) {
		f.add("Service status is not 'healthy'")
	}
	if !v.GetByKey("service").Equal(ldvalue.String("productos")) {
		f.add("Service name should be 'productos'")
	}
	if !v.GetByKey("metrics_endpoint").Equal(ldvalue.String("/metrics")) {
		f.add("Metrics endpoint should be '/metrics'")
	}
	return f.result()
}

// ErrorResponse checks that an error body has a non-blank "error" string. Bodies that also echo
// the HTTP status as a numeric "status" or "statusCode" field must echo expectedStatus.
func ErrorResponse(v ldvalue.Value, expectedStatus int) Result {
	var f findings
	message, ok := v.TryGetByKey("error")
	if !ok {
		f.add("Error response must contain 'error' field")
	}
	if !message.IsString() || strings.TrimSpace(message.StringValue()) == "" {
		f.add("Error message must be a non-empty string")
	}
	for _, key := range []string{"status", "statusCode"} {
		if status := v.GetByKey(key); status.IsInt() && status.IntValue() != expectedStatus {
			f.add("Error response field '%s' is %d, expected %d", key, status.IntValue(), expectedStatus)
		}
	}
	return f.result()
}

// PrometheusMetrics checks a Prometheus text exposition for the expected metric names, or
// DefaultExpectedMetrics if none are given. Lines that do not look like samples or comments are
// reported as warnings.
func PrometheusMetrics(text string, expected ...string) Result {
	var f findings
	if text == "" {
		f.add("Prometheus metrics cannot be empty")
		return f.result()
	}
	if len(expected) == 0 {
		expected = DefaultExpectedMetrics()
	}
	for _, metric := range expected {
		if !strings.Contains(text, metric) {
			f.add("Missing expected metric: '%s'", metric)
		}
	}
	result := f.result()
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !prometheusSamplePattern.MatchString(line) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Line %d is not a valid Prometheus sample: '%s'", i+1, line))
		}
	}
	return result
}

// PaginationResponse checks a paginated list envelope.
func PaginationResponse(v ldvalue.Value) Result {
	var f findings
	fields := []string{"data", "page", "per_page", "total", "pages"}
	for _, field := range fields {
		if _, ok := v.TryGetByKey(field); !ok {
			f.add("Pagination response missing field: '%s'", field)
		}
	}
	if data, ok := v.TryGetByKey("data"); ok && data.Type() != ldvalue.ArrayType {
		f.add("Pagination 'data' field must be a list")
	}
	for _, field := range fields[1:] {
		if n, ok := v.TryGetByKey(field); ok && !n.IsInt() {
			f.add("Pagination '%s' field must be an integer", field)
		}
	}
	return f.result()
}
