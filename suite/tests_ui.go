package suite

import (
	"strings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mybank/expense-contract-tests/bank"
	"github.com/mybank/expense-contract-tests/browser"
)

// DoUITests drives the rendered page through a real browser. The whole group
// is skipped unless the run enabled browser scenarios. Each scenario owns
// its page exclusively and the page is closed on every exit path.
func DoUITests(t *T) {
	t.RequireBrowser()

	t.Run("page title", func(t *T) {
		page := t.Page()
		require.NoError(t, page.Navigate(t.Config().UIBaseURL+"/"))
		title, err := page.Title()
		require.NoError(t, err)
		assert.Equal(t, "MyBank", title)
	})

	t.Run("wrong password shows a login error", func(t *T) {
		page := t.Page()
		require.NoError(t, page.Navigate(t.Config().UIBaseURL+"/"))
		submitLogin(t, page, t.Config().AdminEmail, "wrongpass")

		require.NoError(t, page.WaitVisible("#login-error", uiWaitTimeout))
		text, err := page.Text("#login-error")
		require.NoError(t, err)
		assert.True(t,
			strings.HasPrefix(text, "Login error:") || strings.Contains(strings.ToLower(text), "invalid"),
			"unexpected login error text: %q", text)
	})

	t.Run("invalid email format shows a login error", func(t *T) {
		page := t.Page()
		require.NoError(t, page.Navigate(t.Config().UIBaseURL+"/"))
		submitLogin(t, page, "not-an-email", "123456")
		require.NoError(t, page.WaitVisible("#login-error", uiWaitTimeout))
	})

	t.Run("dashboard is blocked without login", func(t *T) {
		page := t.Page()
		require.NoError(t, page.Navigate(t.Config().UIBaseURL+"/"))
		assert.True(t, page.IsVisible("#auth-overlay", uiWaitTimeout))
	})

	t.Run("seeded records show up in the table after login", func(t *T) {
		// seed three records over the API with this scenario's identity,
		// then verify the rendered table through the browser
		for i := 0; i < 3; i++ {
			rec := bank.NewExpenseRecord("E2E-Test", "10", bank.DirectionOut, "City", "Prod")
			t.MustCreateExpense(rec)
		}

		page := t.Page()
		require.NoError(t, page.Navigate(t.Config().UIBaseURL+"/"))
		identity := t.Identity()
		submitLogin(t, page, identity.Email, identity.Password)

		require.NoError(t, page.WaitVisible("#table", uiWaitTimeout))
	})

	t.Run("logout returns to the login form", func(t *T) {
		page := t.Page()
		require.NoError(t, page.Navigate(t.Config().UIBaseURL+"/"))
		identity := t.Identity()
		t.MustObtainToken() // registers the identity so the UI login succeeds
		submitLogin(t, page, identity.Email, identity.Password)

		require.NoError(t, page.WaitVisible("#logout-btn", uiWaitTimeout))
		require.NoError(t, page.Click("#logout-btn"))
		require.NoError(t, page.WaitVisible("#auth-overlay", uiWaitTimeout))
	})
}

func submitLogin(t *T, page browser.Page, email, password string) {
	require.NoError(t, page.SetValue("#email", email))
	require.NoError(t, page.SetValue("#password", password))
	require.NoError(t, page.Click("#login-btn"))
}
