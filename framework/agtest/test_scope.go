package agtest

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/agroweb/integration-harness/framework"
)

type environment struct {
	config  TestConfiguration
	results Results
}

// T represents a test scope. It is very similar to Go's testing.T type, and it implements
// assert.TestingT and require.TestingT so testify assertions can be used directly.
type T struct {
	env         *environment
	id          TestID
	debugLogger framework.CapturingLogger
	nonCritical string
	failed      bool
	skipped     bool
	skipReason  string
	startTime   time.Time
	cleanups    []func()
	errors      []error
	helperFns   []string
}

// TestConfiguration contains options for the entire test run.
type TestConfiguration struct {
	// Filter optionally decides which tests run based on their IDs.
	Filter Filter

	// TestLogger receives status information about each test.
	TestLogger TestLogger

	// Context is an application-defined value that tests can retrieve with T.Context.
	Context interface{}

	// Capabilities are consulted by T.RequireCapability.
	Capabilities framework.Capabilities
}

// Run starts a top-level test scope and returns the results of everything run inside it.
func Run(config TestConfiguration, action func(*T)) Results {
	if config.TestLogger == nil {
		config.TestLogger = nullTestLogger{}
	}
	env := &environment{config: config}
	env.results.StartTime = time.Now()
	t := &T{env: env, startTime: env.results.StartTime}
	t.run(action)
	env.results.EndTime = time.Now()
	return env.results
}

func (t *T) run(action func(*T)) (result TestResult) {
	result.TestID = t.id
	defer func() {
		if r := recover(); r != nil && !t.skipped {
			t.failed = true
			var addError error
			if _, ok := r.(*T); ok {
				if len(t.errors) == 0 {
					addError = errors.New("test failed with no failure message")
				}
			} else {
				addError = fmt.Errorf("unexpected panic in test: %+v\n%s", r, string(debug.Stack()))
			}
			if addError != nil {
				t.errors = append(t.errors, addError)
				t.env.config.TestLogger.TestError(t.id, addError)
			}
		}
		for i := len(t.cleanups) - 1; i >= 0; i-- {
			t.cleanups[i]()
		}
		result.Errors = t.errors
		result.Duration = time.Since(t.startTime)
		result.Skipped = t.skipped
		result.SkipReason = t.skipReason
		switch {
		case t.skipped:
			t.env.results.Skipped = append(t.env.results.Skipped, result)
			return
		case t.failed && t.nonCritical != "":
			result.Explanation = t.nonCritical
			result.NonCritical = true
			t.env.results.NonCriticalFailures = append(t.env.results.NonCriticalFailures, result)
		case t.failed:
			t.env.results.Failures = append(t.env.results.Failures, result)
		}
		t.env.results.Tests = append(t.env.results.Tests, result)
	}()

	action(t)
	return result
}

// ID returns the full name of the current test.
func (t *T) ID() TestID {
	return t.id
}

// Run runs a subtest in its own scope. This is equivalent to Go's testing.T.Run.
func (t *T) Run(name string, action func(*T)) {
	id := t.id.Plus(name)

	if t.env.config.Filter != nil && !t.env.config.Filter.Match(id) {
		return
	}
	t.env.config.TestLogger.TestStarted(id)
	child := &T{
		id:        id,
		env:       t.env,
		startTime: time.Now(),
	}
	t.debugLogger.AddChildLogger(&child.debugLogger)
	result := child.run(action)
	t.debugLogger.RemoveChildLogger(&child.debugLogger)
	if child.skipped {
		t.env.config.TestLogger.TestSkipped(id, child.skipReason)
	} else {
		t.env.config.TestLogger.TestFinished(id, result, child.debugLogger.Output())
	}
}

// NonCritical marks the test so that a failure is reported, with this explanation, but does
// not make the whole run fail. Load tests against shared environments use this.
func (t *T) NonCritical(explanation string) {
	t.nonCritical = explanation
}

// Errorf reports a test failure without stopping the test. It is part of this type's
// implementation of assert.TestingT, so it is usually called from assertion helpers.
func (t *T) Errorf(format string, args ...interface{}) {
	t.failed = true
	err := transformError(fmt.Errorf(format, args...), getStacktrace(false, t.helperFns))
	t.errors = append(t.errors, err)
	t.env.config.TestLogger.TestError(t.id, err)
}

// FailNow marks the test as failed and stops it immediately.
func (t *T) FailNow() {
	t.failed = true
	panic(t)
}

// Failed reports whether the test has failed so far.
func (t *T) Failed() bool {
	return t.failed
}

// Skip stops the test immediately and marks it as skipped.
func (t *T) Skip() {
	t.skipped = true
	panic(t)
}

// SkipWithReason is equivalent to Skip but provides a message.
func (t *T) SkipWithReason(reason string) {
	t.skipReason = reason
	t.Skip()
}

// Debug writes a message to the captured output for this test scope.
func (t *T) Debug(message string, args ...interface{}) {
	t.debugLogger.Printf(message, args...)
}

// DebugLogger returns a Logger that writes to the captured output for this test scope.
//
// The captured output is passed to TestLogger.TestFinished, which decides whether to show it.
// A subtest's logger starts with a copy of the parent's output, and while the subtest runs,
// anything logged to the parent goes to the subtest instead. This lets a parent scope own a
// client whose request log ends up attached to whichever subtest made the request.
func (t *T) DebugLogger() framework.Logger {
	return &t.debugLogger
}

// Defer schedules a cleanup function that runs when this scope exits for any reason. Cleanups
// run in reverse order of registration.
func (t *T) Defer(cleanupFn func()) {
	t.cleanups = append(t.cleanups, cleanupFn)
}

// Context returns the application-defined value from TestConfiguration.
func (t *T) Context() interface{} {
	return t.env.config.Context
}

// Capabilities returns the capabilities found when the services were probed.
func (t *T) Capabilities() framework.Capabilities {
	return append(framework.Capabilities(nil), t.env.config.Capabilities...)
}

// RequireCapability skips the test unless the named capability is present.
func (t *T) RequireCapability(name string) {
	if !t.Capabilities().Has(name) {
		t.SkipWithReason(fmt.Sprintf("capability %q is not available", name))
	}
}

// Helper marks the calling function as a test helper that should not appear in stacktraces.
func (t *T) Helper() {
	pc, _, _, ok := runtime.Caller(1)
	if !ok {
		return
	}
	if f := runtime.FuncForPC(pc); f != nil {
		t.helperFns = append(t.helperFns, f.Name())
	}
}
