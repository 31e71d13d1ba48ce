package perf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultThresholds(t *testing.T) {
	v := NewValidator(nil)
	assert.Equal(t, 100.0, v.Threshold("health_check"))
	assert.Equal(t, 2000.0, v.Threshold("get_products"))
	assert.Equal(t, 1000.0, v.Threshold("create_product"))
	assert.Equal(t, 500.0, v.Threshold("get_product_by_id"))
	assert.Equal(t, 200.0, v.Threshold("metrics"))
	assert.Equal(t, 5000.0, v.Threshold("unknown"))
}

func TestValidateResponseTime(t *testing.T) {
	v := NewValidator(map[string]float64{"get_carrito": 200})
	assert.True(t, v.ValidateResponseTime("get_carrito", 200))
	assert.False(t, v.ValidateResponseTime("get_carrito", 200.1))
	assert.True(t, v.ValidateResponseTime("health_check", 4999))
}

func TestValidatorCopiesThresholds(t *testing.T) {
	thresholds := map[string]float64{"metrics": 10}
	v := NewValidator(thresholds)
	thresholds["metrics"] = 1
	assert.Equal(t, 10.0, v.Threshold("metrics"))
}

func TestValidateThroughputAndErrorRate(t *testing.T) {
	v := NewValidator(nil)
	assert.True(t, v.ValidateThroughput(10, 0))
	assert.False(t, v.ValidateThroughput(9.9, 0))
	assert.True(t, v.ValidateThroughput(5, 5))

	assert.True(t, v.ValidateErrorRate(0.05, 0))
	assert.False(t, v.ValidateErrorRate(0.051, 0))
	assert.True(t, v.ValidateErrorRate(0.2, 0.25))
}
