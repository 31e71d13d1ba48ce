// Package perf measures latency and throughput of the services under test and compares them
// with per-endpoint limits.
package perf

import "golang.org/x/exp/maps"

const (
	// DefaultThresholdMs applies to endpoints that have no threshold of their own.
	DefaultThresholdMs = 5000
	// DefaultMinThroughput is the minimum requests per second ValidateThroughput accepts by default.
	DefaultMinThroughput = 10
	// DefaultMaxErrorRate is the highest error rate ValidateErrorRate accepts by default.
	DefaultMaxErrorRate = 0.05
)

// DefaultThresholds are the latency limits in milliseconds for the productos endpoints.
func DefaultThresholds() map[string]float64 {
	return map[string]float64{
		"health_check":      100,
		"get_products":      2000,
		"create_product":    1000,
		"get_product_by_id": 500,
		"metrics":           200,
	}
}

// Validator compares measurements with fixed limits. It has no state besides the limits.
type Validator struct {
	thresholds map[string]float64
}

// NewValidator creates a Validator; a nil map means DefaultThresholds.
func NewValidator(thresholds map[string]float64) Validator {
	if thresholds == nil {
		thresholds = DefaultThresholds()
	}
	return Validator{thresholds: maps.Clone(thresholds)}
}

// Threshold returns the limit for an endpoint in milliseconds.
func (v Validator) Threshold(endpoint string) float64 {
	if t, ok := v.thresholds[endpoint]; ok {
		return t
	}
	return DefaultThresholdMs
}

// ValidateResponseTime is true if ms is within the endpoint's limit.
func (v Validator) ValidateResponseTime(endpoint string, ms float64) bool {
	return ms <= v.Threshold(endpoint)
}

// ValidateThroughput is true if rps is at least minRPS, or DefaultMinThroughput if minRPS is 0.
func (v Validator) ValidateThroughput(rps, minRPS float64) bool {
	if minRPS == 0 {
		minRPS = DefaultMinThroughput
	}
	return rps >= minRPS
}

// ValidateErrorRate is true if rate is at most maxRate, or DefaultMaxErrorRate if maxRate is 0.
func (v Validator) ValidateErrorRate(rate, maxRate float64) bool {
	if maxRate == 0 {
		maxRate = DefaultMaxErrorRate
	}
	return rate <= maxRate
}
