// Package lifecycle sequences multi-step expense scenarios against the
// eventually consistent service: it tracks every record a scenario creates,
// verifies post-conditions with bounded read-side polling, and tears all
// tracked state down again on any exit path.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/mybank/expense-contract-tests/bank"
	"github.com/mybank/expense-contract-tests/framework"
)

// VerificationTimeout means a post-mutation check did not observe the
// expected state within the polling budget. It is a scenario failure, not a
// crash, and it never implies the mutation itself was retried.
type VerificationTimeout struct {
	Expectation string
	Attempts    int
	LastErr     error
}

func (e *VerificationTimeout) Error() string {
	msg := fmt.Sprintf("state did not converge after %d attempts: expected %s", e.Attempts, e.Expectation)
	if e.LastErr != nil {
		msg += fmt.Sprintf(" (last read error: %s)", e.LastErr)
	}
	return msg
}

func (e *VerificationTimeout) Unwrap() error { return e.LastErr }

// PollPolicy bounds the read-side convergence checks.
type PollPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// TrackedRecord is one record the scenario created, remembered under both
// identifiers so cleanup can address it regardless of which one the service
// considers authoritative.
type TrackedRecord struct {
	Record bank.ExpenseRecord
	ID     bank.ServerID
}

// Orchestrator drives one scenario's expense operations. It is not safe for
// concurrent use; scenario isolation comes from each scenario owning its own
// identity and orchestrator, not from locking.
type Orchestrator struct {
	client  *bank.Client
	policy  PollPolicy
	logger  framework.Logger
	tracked []TrackedRecord
}

func New(client *bank.Client, policy PollPolicy, logger framework.Logger) *Orchestrator {
	if logger == nil {
		logger = framework.NullLogger()
	}
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	return &Orchestrator{client: client, policy: policy, logger: logger}
}

// CreateTracked creates a record and remembers it for cleanup. The record is
// tracked before the create request is issued: if the request succeeds but
// the response is lost, cleanup still knows the correlation key to delete.
func (o *Orchestrator) CreateTracked(rec bank.ExpenseRecord) (bank.ServerID, error) {
	o.tracked = append(o.tracked, TrackedRecord{
		Record: rec,
		ID:     bank.ServerIDFromString(rec.CorrelationID),
	})
	id, err := o.client.Create(rec)
	if err != nil {
		return bank.ServerID{}, err
	}
	o.tracked[len(o.tracked)-1].ID = id
	return id, nil
}

// Update replaces the record under id. The tracked entry, if any, is updated
// so later verification and cleanup see the new field values.
func (o *Orchestrator) Update(id bank.ServerID, rec bank.ExpenseRecord) (bank.Outcome, error) {
	outcome, err := o.client.Update(id, rec)
	if err == nil && outcome == bank.OutcomeOK {
		for i := range o.tracked {
			if o.tracked[i].ID.String() == id.String() {
				o.tracked[i].Record = rec
			}
		}
	}
	return outcome, err
}

// Delete removes the record under id and stops tracking it on success.
func (o *Orchestrator) Delete(id bank.ServerID) (bank.Outcome, error) {
	outcome, err := o.client.Delete(id)
	if err == nil {
		o.untrack(id)
	}
	return outcome, err
}

func (o *Orchestrator) untrack(id bank.ServerID) {
	kept := o.tracked[:0]
	for _, t := range o.tracked {
		if t.ID.String() != id.String() {
			kept = append(kept, t)
		}
	}
	o.tracked = kept
}

// Tracked returns the records the scenario still owns.
func (o *Orchestrator) Tracked() []TrackedRecord {
	return append([]TrackedRecord(nil), o.tracked...)
}

// VerifyPresent polls until the list contains a record matching rec's field
// tuple. Matching is never by identifier or position: right after a bulk
// create the server-assigned ids are unknown and ordering is unspecified.
func (o *Orchestrator) VerifyPresent(rec bank.ExpenseRecord) error {
	return o.pollList(fmt.Sprintf("record present (%s/%s/%s/%s/%s)",
		rec.Type, rec.Amount, rec.Direction, rec.Location, rec.Product),
		func(items []bank.ListedExpense) bool {
			return findByFields(items, rec) >= 0
		})
}

// VerifyAbsent polls until no record matches rec's field tuple.
func (o *Orchestrator) VerifyAbsent(rec bank.ExpenseRecord) error {
	return o.pollList(fmt.Sprintf("record absent (%s/%s/%s/%s/%s)",
		rec.Type, rec.Amount, rec.Direction, rec.Location, rec.Product),
		func(items []bank.ListedExpense) bool {
			return findByFields(items, rec) < 0
		})
}

// VerifyCount polls until the list has exactly n records.
func (o *Orchestrator) VerifyCount(n int) error {
	return o.pollList(fmt.Sprintf("%d records", n), func(items []bank.ListedExpense) bool {
		return len(items) == n
	})
}

// pollList retries the verification read up to the policy's budget. Only
// reads are ever retried here; re-issuing a mutation could silently
// duplicate state on the server.
func (o *Orchestrator) pollList(expectation string, satisfied func([]bank.ListedExpense) bool) error {
	var lastErr error
	for attempt := 1; attempt <= o.policy.Attempts; attempt++ {
		items, err := o.client.List()
		if err == nil && satisfied(items) {
			return nil
		}
		lastErr = err
		if err != nil {
			o.logger.Printf("Verification read %d/%d failed: %s", attempt, o.policy.Attempts, err)
		} else {
			o.logger.Printf("Verification read %d/%d: expected %s, not yet observed (%d records)",
				attempt, o.policy.Attempts, expectation, len(items))
		}
		if attempt < o.policy.Attempts {
			time.Sleep(o.policy.Backoff)
		}
	}
	return &VerificationTimeout{Expectation: expectation, Attempts: o.policy.Attempts, LastErr: lastErr}
}

// Cleanup deletes every record the scenario still tracks. It is meant to run
// unconditionally at scenario exit: all outcomes, including NotFound for
// records the scenario already removed itself, are logged and swallowed so
// that cleanup can never mask the scenario's own verdict.
func (o *Orchestrator) Cleanup() {
	for _, t := range o.tracked {
		outcome, err := o.client.Delete(t.ID)
		switch {
		case err != nil:
			o.logger.Printf("Cleanup delete of %s failed (ignored): %s", t.ID, err)
		case outcome == bank.OutcomeNotFound:
			o.logger.Printf("Cleanup delete of %s: already gone", t.ID)
		default:
			o.logger.Printf("Cleanup deleted %s", t.ID)
		}
	}
	o.tracked = nil
}

// ClearAll deletes every record the identity currently has, tracked or not,
// and confirms the list converges to empty. This is the history-clearing
// flow; ordinary scenarios should rely on Cleanup instead.
func (o *Orchestrator) ClearAll() error {
	items, err := o.client.List()
	if err != nil {
		return err
	}
	for _, item := range items {
		if outcome, err := o.client.Delete(item.ID); err != nil {
			return err
		} else if outcome == bank.OutcomeNotFound {
			o.logger.Printf("Clearing history: %s already gone", item.ID)
		}
	}
	o.tracked = nil
	return o.VerifyCount(0)
}

func findByFields(items []bank.ListedExpense, rec bank.ExpenseRecord) int {
	for i, item := range items {
		if item.Fields().SameFields(rec) {
			return i
		}
	}
	return -1
}
