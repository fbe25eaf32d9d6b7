package bank

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func brokerTestServer(registerHandler, loginHandler http.Handler) *httptest.Server {
	mux := http.NewServeMux()
	mux.Handle("/register", registerHandler)
	mux.Handle("/login", loginHandler)
	return httptest.NewServer(mux)
}

func TestObtainTokenRegistersThenLogsIn(t *testing.T) {
	registerHandler, registerRequests := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(201))
	loginHandler, loginRequests := httphelpers.RecordingHandler(
		httphelpers.HandlerWithJSONResponse(map[string]string{"token": "tok-1"}, nil))
	server := brokerTestServer(registerHandler, loginHandler)
	defer server.Close()

	broker := NewCredentialBroker(server.URL, nil, nil)
	identity := Identity{Email: "user@test.com", Password: "pass1234"}

	token, err := broker.ObtainToken(identity)
	require.NoError(t, err)
	assert.Equal(t, AuthToken("tok-1"), token)
	assert.Len(t, registerRequests, 1)
	assert.Len(t, loginRequests, 1)
}

func TestObtainTokenCachesPerIdentity(t *testing.T) {
	registerHandler, registerRequests := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(201))
	loginHandler, loginRequests := httphelpers.RecordingHandler(
		httphelpers.HandlerWithJSONResponse(map[string]string{"token": "tok-1"}, nil))
	server := brokerTestServer(registerHandler, loginHandler)
	defer server.Close()

	broker := NewCredentialBroker(server.URL, nil, nil)
	identity := Identity{Email: "user@test.com", Password: "pass1234"}

	first, err := broker.ObtainToken(identity)
	require.NoError(t, err)
	second, err := broker.ObtainToken(identity)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, registerRequests, 1, "second acquisition must not re-register")
	assert.Len(t, loginRequests, 1, "second acquisition must not re-login")
}

func TestObtainTokenIgnoresDuplicateRegistration(t *testing.T) {
	server := brokerTestServer(
		httphelpers.HandlerWithResponse(409, nil, []byte(`{"error":"user already exists"}`)),
		httphelpers.HandlerWithJSONResponse(map[string]string{"token": "tok-2"}, nil))
	defer server.Close()

	broker := NewCredentialBroker(server.URL, nil, nil)
	token, err := broker.ObtainToken(Identity{Email: "user@test.com", Password: "pass1234"})
	require.NoError(t, err)
	assert.Equal(t, AuthToken("tok-2"), token)
}

func TestObtainTokenReportsAuthFailureWithStatus(t *testing.T) {
	server := brokerTestServer(
		httphelpers.HandlerWithStatus(201),
		httphelpers.HandlerWithResponse(401, nil, []byte(`{"error":"invalid credentials"}`)))
	defer server.Close()

	broker := NewCredentialBroker(server.URL, nil, nil)
	_, err := broker.ObtainToken(Identity{Email: "user@test.com", Password: "bad"})

	var authErr *AuthFailure
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 401, authErr.Status)
}

func TestObtainTokenTreatsEmptyTokenAsFailure(t *testing.T) {
	server := brokerTestServer(
		httphelpers.HandlerWithStatus(201),
		httphelpers.HandlerWithJSONResponse(map[string]string{"token": ""}, nil))
	defer server.Close()

	broker := NewCredentialBroker(server.URL, nil, nil)
	_, err := broker.ObtainToken(Identity{Email: "user@test.com", Password: "pass1234"})

	var authErr *AuthFailure
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 200, authErr.Status)
}

func TestLoginDoesNotRegisterOrCache(t *testing.T) {
	registerHandler, registerRequests := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(201))
	loginHandler, loginRequests := httphelpers.RecordingHandler(
		httphelpers.HandlerWithJSONResponse(map[string]string{"token": "tok-3"}, nil))
	server := brokerTestServer(registerHandler, loginHandler)
	defer server.Close()

	broker := NewCredentialBroker(server.URL, nil, nil)
	identity := Identity{Email: "user@test.com", Password: "pass1234"}

	for i := 0; i < 2; i++ {
		token, status, err := broker.Login(identity)
		require.NoError(t, err)
		assert.Equal(t, 200, status)
		assert.Equal(t, AuthToken("tok-3"), token)
	}
	assert.Len(t, registerRequests, 0)
	assert.Len(t, loginRequests, 2)
}

func TestNewIdentityGeneratesDistinctEmails(t *testing.T) {
	a := NewIdentity("scenario", "test.com")
	b := NewIdentity("scenario", "test.com")
	assert.NotEqual(t, a.Email, b.Email)
	assert.Contains(t, a.Email, "scenario+")
	assert.Contains(t, a.Email, "@test.com")
}
