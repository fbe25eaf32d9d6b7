// Package framework contains the low-level implementation of test harness
// infrastructure that is not specific to the service being tested.
//
// The general model is:
//
// 1. The harness runs as a standalone program against a remotely deployed
// service, reaching it only over its public HTTP API.
//
// 2. There is a general notion of a scenario context which is similar to Go's
// *testing.T, allowing pieces of test logic to be associated with a scenario
// identifier and to accumulate success/failure results. Unlike testing.T it
// also carries a cleanup stack, because scenarios create real state in the
// remote service that must be retracted even when an assertion fails.
//
// The domain-specific code that knows what is being tested is responsible for
// the request payloads, the verification logic, and a domain-specific
// scenario API on top of the context.
package framework
