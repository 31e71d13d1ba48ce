package helpers

import (
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestRecorderCollectsAssertionFailures(t *testing.T) {
	var tr TestRecorder
	product := ldvalue.ObjectBuild().Set("stock", ldvalue.Int(0)).Build()

	assert.Equal(&tr, 5, product.GetByKey("stock").IntValue())
	tr.Errorf("product %s has no stock", "PROD-0000000A")

	require.Len(t, tr.Errors, 2)
	assert.Contains(t, tr.Errors[0], "Not equal")
	assert.Equal(t, "product PROD-0000000A has no stock", tr.Errors[1])
	assert.False(t, tr.Terminated)
	assert.Contains(t, tr.Err().Error(), ", product PROD-0000000A has no stock")
}

func TestTestRecorderNoErrors(t *testing.T) {
	var tr TestRecorder
	assert.True(&tr, true)
	assert.NoError(t, tr.Err())
	assert.Empty(t, tr.Errors)
}

func TestTestRecorderFailNow(t *testing.T) {
	var quiet TestRecorder
	require.Fail(&quiet, "stop")
	assert.True(t, quiet.Terminated)

	panicking := TestRecorder{PanicOnTerminate: true}
	assert.Panics(t, func() { require.True(&panicking, false) })
	assert.True(t, panicking.Terminated)
}
