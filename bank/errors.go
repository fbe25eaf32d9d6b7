package bank

import "fmt"

// AuthFailure means registration/login did not yield a usable token. The
// broker never retries these on its own; repeated login attempts against a
// real auth system must be an explicit caller decision.
type AuthFailure struct {
	Status int
}

func (e *AuthFailure) Error() string {
	return fmt.Sprintf("authentication did not produce a token (HTTP status %d)", e.Status)
}

// StatusError is a non-2xx response on an operation where the harness
// expected success. The response body is kept for failure triage.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s returned HTTP %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s returned HTTP %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Outcome is the modeled result of an update or delete. NotFound is an
// expected, non-fatal outcome: the record may already have been removed, or
// the service's identifier scheme may be ambiguous. Callers decide whether
// it fails their scenario.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeNotFound
)

func (o Outcome) String() string {
	if o == OutcomeNotFound {
		return "not found"
	}
	return "ok"
}
