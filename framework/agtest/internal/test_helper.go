// Package internal contains helpers for agtest's own unit tests.
package internal

// RunAction calls action. It lives in a separate package so that stacktrace tests can observe a
// frame that does not belong to agtest.
func RunAction(action func()) {
	action()
}
