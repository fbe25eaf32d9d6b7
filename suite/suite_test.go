package suite

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mybank/expense-contract-tests/bank"
	"github.com/mybank/expense-contract-tests/config"
	"github.com/mybank/expense-contract-tests/framework"
	"github.com/mybank/expense-contract-tests/mockbank"
)

func newSuiteEnvironment(t *testing.T) (*environment, *mockbank.Server) {
	t.Helper()
	mock := mockbank.NewServer()
	mock.SeedUser("admin@mybank.com", "123456")
	server := httptest.NewServer(mock.Handler())
	t.Cleanup(server.Close)

	harness, err := framework.NewHarness(server.URL, time.Second*5, nil, io.Discard)
	require.NoError(t, err)

	cfg := &config.Config{
		BaseURL:        server.URL,
		UIBaseURL:      server.URL,
		AdminEmail:     "admin@mybank.com",
		AdminPassword:  "123456",
		IdentityDomain: "test.com",
		VerifyAttempts: 5,
		VerifyBackoff:  time.Millisecond * 10,
		MinAmount:      "1",
		MaxAmount:      "1000000",
		StatusTimeout:  time.Second * 5,
		RequestTimeout: time.Second * 5,
	}
	return &environment{harness: harness, cfg: cfg, opts: Options{Browser: false}}, mock
}

func TestFullSuitePassesAgainstMockService(t *testing.T) {
	env, _ := newSuiteEnvironment(t)

	results := RunTestSuite(env.harness, env.cfg, env.opts, nil, nil)

	for _, failure := range results.Failures {
		t.Errorf("scenario %q failed: %v", failure.TestID, failure.Errors)
	}
	assert.True(t, results.OK())
	assert.NotEmpty(t, results.Tests)
}

func TestSuiteConvergesWhenListReadsLagMutations(t *testing.T) {
	env, mock := newSuiteEnvironment(t)
	mock.SetListLag(2)

	results := RunTestSuite(env.harness, env.cfg, env.opts, nil, nil)

	for _, failure := range results.Failures {
		t.Errorf("scenario %q failed: %v", failure.TestID, failure.Errors)
	}
	assert.True(t, results.OK())
}

func TestScenarioFilterLimitsWhatRuns(t *testing.T) {
	env, _ := newSuiteEnvironment(t)

	var filters framework.RegexFilters
	require.NoError(t, filters.MustMatch.Set("^validation"))

	results := RunTestSuite(env.harness, env.cfg, env.opts, filters.AsFilter, nil)

	assert.True(t, results.OK())
	for _, test := range results.Tests {
		if len(test.TestID.Path) > 1 {
			assert.Equal(t, "validation", test.TestID.Path[0])
		}
	}
}

// A scenario that fails after creating records must still leave the service
// in the state it found: the registered cleanup deletes everything the
// scenario created, on the failure path included.
func TestFailedScenarioStillCleansUpItsRecords(t *testing.T) {
	env, _ := newSuiteEnvironment(t)

	var email, password string
	results := framework.Run(nil, nil, func(c *framework.Context) {
		c.Run("fails after creating", func(c *framework.Context) {
			scope := newScope(c, env)
			identity := scope.Identity()
			email, password = identity.Email, identity.Password

			scope.MustCreateExpense(bank.NewExpenseRecord("Media Expert", "200", bank.DirectionOut, "Wroclaw", "Product-1"))
			scope.MustCreateExpense(bank.NewExpenseRecord("Biedronka", "100", bank.DirectionOut, "Krakow", "Product-2"))

			scope.Errorf("deliberate failure")
			scope.FailNow()
		})
	})
	require.False(t, results.OK())

	// a fresh client for the same identity must see no leftovers
	broker := bank.NewCredentialBroker(env.harness.ServiceBaseURL(), nil, nil)
	token, err := broker.ObtainToken(bank.Identity{Email: email, Password: password})
	require.NoError(t, err)

	client := bank.NewClient(env.harness.ServiceBaseURL(), token, nil, nil)
	items, err := client.List()
	require.NoError(t, err)
	assert.Empty(t, items, "failed scenario left records behind")
}

// Same guarantee on the panic path.
func TestPanickedScenarioStillCleansUpItsRecords(t *testing.T) {
	env, _ := newSuiteEnvironment(t)

	var email, password string
	results := framework.Run(nil, nil, func(c *framework.Context) {
		c.Run("panics after creating", func(c *framework.Context) {
			scope := newScope(c, env)
			identity := scope.Identity()
			email, password = identity.Email, identity.Password

			scope.MustCreateExpense(bank.NewExpenseRecord("Media Expert", "200", bank.DirectionOut, "Wroclaw", "Product-1"))
			panic("scenario blew up")
		})
	})
	require.False(t, results.OK())

	broker := bank.NewCredentialBroker(env.harness.ServiceBaseURL(), nil, nil)
	token, err := broker.ObtainToken(bank.Identity{Email: email, Password: password})
	require.NoError(t, err)

	client := bank.NewClient(env.harness.ServiceBaseURL(), token, nil, nil)
	items, err := client.List()
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestScenariosUseDistinctIdentities(t *testing.T) {
	env, _ := newSuiteEnvironment(t)

	var first, second string
	framework.Run(nil, nil, func(c *framework.Context) {
		c.Run("one", func(c *framework.Context) {
			first = newScope(c, env).Identity().Email
		})
		c.Run("two", func(c *framework.Context) {
			second = newScope(c, env).Identity().Email
		})
	})
	assert.NotEqual(t, first, second)
}
