// Package agtest is the test runner used by the AgroWeb integration suites. It is modeled on Go's
// testing package but runs as ordinary application code against live services, adding filtering
// by test path, non-critical failures, captured debug output per scope, and pluggable result
// loggers (console and JUnit XML).
package agtest
