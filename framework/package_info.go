// Package framework contains the service-independent parts of the AgroWeb integration harness.
// The base package has shared types such as Logger and Capabilities; the subpackages provide the
// test runner (agtest), service probing (harness), optional values (opt) and assorted test
// helpers (helpers).
//
// The general model is:
//
// 1. The harness probes each service under test (productos, carrito, usuarios) and records which
// ones answered as Capabilities.
//
// 2. Suites are trees of named test scopes, similar to Go's testing.T, that accumulate failures,
// captured debug output and timing.
//
// 3. Domain code (clients, generator, validator, suites) sits on top and knows nothing about how
// results are reported.
package framework
