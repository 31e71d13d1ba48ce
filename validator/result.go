// Package validator checks service responses and payloads. Every check is a pure function that
// returns a Result listing all the problems it found, so that one failed assertion shows every
// violation at once.
package validator

import (
	"errors"
	"fmt"
	"strings"
)

// Result is the outcome of a validation. OK is true if and only if Findings is empty. Warnings
// never affect OK.
type Result struct {
	OK       bool
	Findings []string
	Warnings []string
}

// Err returns nil if the result is OK, or an error whose message joins all the findings.
func (r Result) Err() error {
	if r.OK {
		return nil
	}
	return errors.New(strings.Join(r.Findings, "; "))
}

// Merge combines two results; the combination is OK only if both are.
func (r Result) Merge(other Result) Result {
	return Result{
		OK:       r.OK && other.OK,
		Findings: append(append([]string(nil), r.Findings...), other.Findings...),
		Warnings: append(append([]string(nil), r.Warnings...), other.Warnings...),
	}
}

func (r Result) String() string {
	if r.OK {
		return "OK"
	}
	return fmt.Sprintf("%d finding(s): %s", len(r.Findings), strings.Join(r.Findings, "; "))
}

type findings []string

func (f *findings) add(format string, args ...interface{}) {
	*f = append(*f, fmt.Sprintf(format, args...))
}

func (f findings) result() Result {
	return Result{OK: len(f) == 0, Findings: f}
}
