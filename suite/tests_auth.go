package suite

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mybank/expense-contract-tests/bank"
)

// DoAuthTests covers registration and login behavior, including the
// idempotence contract: registering an identity that already exists must
// never prevent a subsequent login with the correct password.
func DoAuthTests(t *T) {
	t.Run("generated identity receives a token", func(t *T) {
		token := t.MustObtainToken()
		assert.NotEmpty(t, token)
	})

	t.Run("token is cached within a scenario", func(t *T) {
		first := t.MustObtainToken()
		second := t.MustObtainToken()
		assert.Equal(t, first, second)
	})

	t.Run("registering twice still allows login", func(t *T) {
		identity := t.Identity()
		token := t.MustObtainToken()
		assert.NotEmpty(t, token)

		// a second broker has a cold cache, so this registers the same
		// identity again and then logs in
		again := bank.NewCredentialBroker(t.BaseURL(), t.HTTPClient(), t.context.DebugLogger())
		token2, err := again.ObtainToken(identity)
		require.NoError(t, err)
		assert.NotEmpty(t, token2)
	})

	t.Run("wrong password is rejected", func(t *T) {
		identity := t.Identity()
		t.MustObtainToken() // ensures the account exists

		wrong := bank.Identity{Email: identity.Email, Password: "wrongpass"}
		token, status, err := t.Broker().Login(wrong)
		require.NoError(t, err)
		assert.Equal(t, 401, status)
		assert.Empty(t, token)
	})

	t.Run("empty credentials are rejected", func(t *T) {
		token, status, err := t.Broker().Login(bank.Identity{})
		require.NoError(t, err)
		assert.Contains(t, []int{400, 401}, status)
		assert.Empty(t, token)
	})

	t.Run("SQL injection in the email is rejected", func(t *T) {
		malicious := bank.Identity{Email: "admin' OR '1'='1", Password: "123456"}
		token, status, err := t.Broker().Login(malicious)
		require.NoError(t, err)
		assert.Contains(t, []int{400, 401}, status)
		assert.Empty(t, token)
	})

	t.Run("auth failure carries the HTTP status", func(t *T) {
		unregistered := bank.NewIdentity("never-registered", t.Config().IdentityDomain)
		broker := bank.NewCredentialBroker(t.BaseURL(), t.HTTPClient(), t.context.DebugLogger())

		// sabotage the flow by logging in directly without registering
		token, status, err := broker.Login(unregistered)
		require.NoError(t, err)
		assert.Empty(t, token)
		assert.NotEqual(t, 200, status)
	})
}
