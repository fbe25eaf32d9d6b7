package suite

import (
	"net/http"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mybank/expense-contract-tests/bank"
	"github.com/mybank/expense-contract-tests/browser"
	"github.com/mybank/expense-contract-tests/config"
	"github.com/mybank/expense-contract-tests/framework"
	"github.com/mybank/expense-contract-tests/lifecycle"
	"github.com/mybank/expense-contract-tests/oracle"
)

const uiWaitTimeout = 10 * time.Second

type environment struct {
	harness *framework.Harness
	cfg     *config.Config
	opts    Options
}

// T represents one scenario in the suite.
//
// It implements the same basic functionality as Go's testing.T, but outside
// the Go test runner, with extra features such as captured debug logging.
// To make assertions you can use the assert and require packages, passing
// the *T as if it were a *testing.T.
//
// Each T owns its scenario's resources: a generated identity, a credential
// broker, an authenticated client, and a lifecycle orchestrator whose
// cleanup is registered to run on every exit path the moment the first
// record is created. Nothing here is shared between scenarios; isolation
// comes from each scenario having its own identity.
type T struct {
	context    *framework.Context
	env        *environment
	httpClient *http.Client

	identity *bank.Identity
	broker   *bank.CredentialBroker
	client   *bank.Client
	orch     *lifecycle.Orchestrator
}

func newScope(context *framework.Context, env *environment) *T {
	return &T{
		context:    context,
		env:        env,
		httpClient: &http.Client{Timeout: env.cfg.RequestTimeout},
	}
}

// Errorf is called by assertions to log a failure. It does not cause an
// immediate exit.
func (t *T) Errorf(format string, args ...interface{}) {
	t.context.Errorf(format, args...)
}

// FailNow is called by assertions when a scenario should fail and
// immediately exit. The methods in the require package call FailNow.
func (t *T) FailNow() {
	t.context.FailNow()
}

// Run runs a nested scenario with its own scope and resources.
func (t *T) Run(name string, action func(*T)) {
	t.context.Run(name, func(c *framework.Context) {
		action(newScope(c, t.env))
	})
}

// Debug logs output that will be attached to the scenario's report.
func (t *T) Debug(format string, args ...interface{}) {
	t.context.Debug(format, args...)
}

// Defer registers cleanup to run when the scenario exits on any path.
func (t *T) Defer(cleanup func()) {
	t.context.Defer(cleanup)
}

func (t *T) BaseURL() string {
	return t.env.harness.ServiceBaseURL()
}

func (t *T) Config() *config.Config {
	return t.env.cfg
}

func (t *T) HTTPClient() *http.Client {
	return t.httpClient
}

// Identity returns the scenario's own generated identity, creating it on
// first use. It is never shared with another scenario.
func (t *T) Identity() bank.Identity {
	if t.identity == nil {
		id := bank.NewIdentity("scenario", t.env.cfg.IdentityDomain)
		t.identity = &id
		t.Debug("scenario identity: %s", id.Email)
	}
	return *t.identity
}

// AdminIdentity returns the fixed identity from configuration. Only
// read-only scenarios may use it; anything that mutates state must use
// Identity instead.
func (t *T) AdminIdentity() bank.Identity {
	return bank.Identity{Email: t.env.cfg.AdminEmail, Password: t.env.cfg.AdminPassword}
}

// Broker returns the scenario's credential broker.
func (t *T) Broker() *bank.CredentialBroker {
	if t.broker == nil {
		t.broker = bank.NewCredentialBroker(t.BaseURL(), t.httpClient, t.context.DebugLogger())
	}
	return t.broker
}

// MustObtainToken acquires a token for the scenario identity, failing the
// scenario on any authentication problem.
func (t *T) MustObtainToken() bank.AuthToken {
	token, err := t.Broker().ObtainToken(t.Identity())
	require.NoError(t, err)
	return token
}

// Client returns the scenario's authenticated expense client, performing
// registration and login on first use. The client's last request/response
// exchange is attached to the scenario's debug output at exit for triage.
func (t *T) Client() *bank.Client {
	if t.client == nil {
		token := t.MustObtainToken()
		t.client = bank.NewClient(t.BaseURL(), token, t.httpClient, t.context.DebugLogger())
		t.Defer(func() {
			reqBody, respBody, status := t.client.LastExchange()
			if status != 0 {
				t.Debug("last exchange: status=%d request=%s response=%s", status, reqBody, respBody)
			}
		})
	}
	return t.client
}

// Orchestrator returns the scenario's lifecycle orchestrator. Its cleanup is
// registered immediately, so any record it ever creates is deleted when the
// scenario exits, even if an assertion fails first.
func (t *T) Orchestrator() *lifecycle.Orchestrator {
	if t.orch == nil {
		t.orch = lifecycle.New(t.Client(), lifecycle.PollPolicy{
			Attempts: t.env.cfg.VerifyAttempts,
			Backoff:  t.env.cfg.VerifyBackoff,
		}, t.context.DebugLogger())
		t.Defer(t.orch.Cleanup)
	}
	return t.orch
}

// MustCreateExpense validates the record against the local oracle, creates
// it as a tracked record, and fails the scenario on error.
func (t *T) MustCreateExpense(rec bank.ExpenseRecord) bank.ServerID {
	t.requireLocallyValid(rec)
	id, err := t.Orchestrator().CreateTracked(rec)
	require.NoError(t, err)
	t.Debug("created expense %s -> server id %s", rec.CorrelationID, id)
	return id
}

// requireLocallyValid consults the oracle before anything goes on the wire,
// so a scenario bug produces a local failure instead of a confusing remote
// one.
func (t *T) requireLocallyValid(rec bank.ExpenseRecord) {
	cfg := t.env.cfg
	require.True(t, oracle.AmountWithinBounds(rec.Amount, cfg.MinAmount, cfg.MaxAmount),
		"amount %q outside configured bounds [%s, %s]", rec.Amount, cfg.MinAmount, cfg.MaxAmount)
	if rec.Product != "" {
		require.True(t, oracle.IsProductNameValid(rec.Product), "invalid product name %q", rec.Product)
	}
	require.Contains(t, []bank.Direction{bank.DirectionIn, bank.DirectionOut}, rec.Direction)
}

// RequirePresent fails the scenario unless the list converges to containing
// a record with rec's field tuple.
func (t *T) RequirePresent(rec bank.ExpenseRecord) {
	require.NoError(t, t.Orchestrator().VerifyPresent(rec))
}

// RequireAbsent fails the scenario unless the list converges to containing
// no record with rec's field tuple.
func (t *T) RequireAbsent(rec bank.ExpenseRecord) {
	require.NoError(t, t.Orchestrator().VerifyAbsent(rec))
}

// RequireCount fails the scenario unless the list converges to exactly n
// records.
func (t *T) RequireCount(n int) {
	require.NoError(t, t.Orchestrator().VerifyCount(n))
}

// RequireBrowser skips the scenario unless UI testing was enabled for this
// run.
func (t *T) RequireBrowser() {
	if !t.env.opts.Browser {
		t.context.SkipWithReason("browser scenarios not enabled for this run")
	}
}

// Page opens a browser page owned exclusively by this scenario. It is
// closed on every exit path.
func (t *T) Page() browser.Page {
	t.RequireBrowser()
	page, err := t.env.opts.NewPage()
	require.NoError(t, err)
	t.Defer(page.Close)
	return page
}
