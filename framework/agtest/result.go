package agtest

import (
	"strings"
	"time"
)

// Results is the outcome of an entire test run.
type Results struct {
	StartTime           time.Time
	EndTime             time.Time
	Tests               []TestResult
	Failures            []TestResult
	NonCriticalFailures []TestResult
	Skipped             []TestResult
}

// TestResult is the outcome of a single test scope.
type TestResult struct {
	TestID      TestID
	Errors      []error
	Duration    time.Duration
	Skipped     bool
	SkipReason  string
	NonCritical bool
	Explanation string
}

// OK returns true if there were no failures other than non-critical ones.
func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// Passed returns the number of tests that neither failed nor were skipped.
func (r Results) Passed() int {
	return len(r.Tests) - len(r.Failures) - len(r.NonCriticalFailures)
}

// Status is a one-word description of the result, as used in summaries.
func (r TestResult) Status() string {
	switch {
	case r.Skipped:
		return "skipped"
	case len(r.Errors) != 0 && r.NonCritical:
		return "failed (non-critical)"
	case len(r.Errors) != 0:
		return "failed"
	default:
		return "passed"
	}
}

// TestID is the path of names from the top-level scope to a test.
type TestID []string

func (t TestID) String() string {
	return strings.Join(t, "/")
}

// Plus returns a new TestID with name appended; the receiver is not modified.
func (t TestID) Plus(name string) TestID {
	return append(append(TestID(nil), t...), name)
}
