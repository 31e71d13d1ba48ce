package helpers

import (
	"context"
	"time"
)

// PollForSpecificResultValue calls testFn at intervals until it returns expectedValue or the
// timeout elapses. It returns true if the value was seen.
func PollForSpecificResultValue[V comparable](
	testFn func() V,
	timeout time.Duration,
	interval time.Duration,
	expectedValue V,
) bool {
	if testFn() == expectedValue {
		return true
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		select {
		case <-deadline.C:
			return false
		case <-ticker.C:
			if testFn() == expectedValue {
				return true
			}
		}
	}
}

// AssertEventually works like assert.Eventually, but calls testFn on the current goroutine so
// that a FailNow inside it behaves correctly with agtest.T.
func AssertEventually(
	t TestContext,
	testFn func() bool,
	timeout time.Duration,
	interval time.Duration,
	failureMsgFormat string,
	failureMsgArgs ...interface{},
) bool {
	if PollForSpecificResultValue(testFn, timeout, interval, true) {
		return true
	}
	t.Errorf(failureMsgFormat, failureMsgArgs...)
	return false
}

// RequireEventually is AssertEventually followed by FailNow on timeout.
func RequireEventually(
	t TestContext,
	testFn func() bool,
	timeout time.Duration,
	interval time.Duration,
	failureMsgFormat string,
	failureMsgArgs ...interface{},
) {
	if !AssertEventually(t, testFn, timeout, interval, failureMsgFormat, failureMsgArgs...) {
		t.FailNow()
	}
}

// Retry calls fn up to attempts times, waiting delay between calls, until shouldRetry returns
// false for its result. It returns the last result and error. attempts less than 1 is treated
// as 1.
//
// The carrito service is known to fail intermittently with status 500, so its client retries
// through this.
func Retry[V any](
	ctx context.Context,
	attempts int,
	delay time.Duration,
	fn func() (V, error),
	shouldRetry func(V, error) bool,
) (V, error) {
	if attempts < 1 {
		attempts = 1
	}
	var (
		result V
		err    error
	)
	for i := 0; i < attempts; i++ {
		result, err = fn()
		if !shouldRetry(result, err) || i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(delay):
		}
	}
	return result, err
}
