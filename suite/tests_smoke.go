package suite

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mybank/expense-contract-tests/bank"
)

// DoSmokeTests makes the cheapest possible checks that the deployed service
// is alive and enforcing authentication, before the heavier scenario groups
// run.
func DoSmokeTests(t *T) {
	t.Run("home page is reachable", func(t *T) {
		status, err := bank.ProbeStatus(t.HTTPClient(), t.BaseURL(), "/")
		require.NoError(t, err)
		assert.Equal(t, 200, status)
	})

	t.Run("login endpoint is present", func(t *T) {
		// GET may legitimately be rejected; only a routing-level absence
		// would be surprising
		status, err := bank.ProbeStatus(t.HTTPClient(), t.BaseURL(), "/login")
		require.NoError(t, err)
		assert.Contains(t, []int{200, 404, 405}, status)
	})

	t.Run("expenses require authentication", func(t *T) {
		status, err := bank.ProbeStatus(t.HTTPClient(), t.BaseURL(), "/expenses")
		require.NoError(t, err)
		assert.Contains(t, []int{401, 403}, status)
	})

	t.Run("fixed identity can log in", func(t *T) {
		// read-only use of the shared fixture identity; no registration, no
		// state created
		token, status, err := t.Broker().Login(t.AdminIdentity())
		require.NoError(t, err)
		assert.Equal(t, 200, status)
		assert.NotEmpty(t, token)
	})

	t.Run("fresh identity can create an expense", func(t *T) {
		rec := bank.NewExpenseRecord("Smoke", "10", bank.DirectionOut, "SmokeCity", "SmokeProduct")
		t.MustCreateExpense(rec)
		t.RequirePresent(rec)
	})
}
