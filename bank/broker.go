package bank

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/mybank/expense-contract-tests/framework"
)

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// CredentialBroker obtains bearer tokens for identities. Registration is
// attempted before every first login but its outcome is deliberately
// ignored: a duplicate-registration rejection is indistinguishable, from
// here, from a fresh success, and either way the subsequent login decides
// whether the identity is usable.
//
// Tokens are cached per identity for the broker's lifetime, so within one
// scenario the same identity never logs in twice.
type CredentialBroker struct {
	baseURL    string
	httpClient *http.Client
	logger     framework.Logger

	lock   sync.Mutex
	tokens map[string]AuthToken
}

func NewCredentialBroker(baseURL string, httpClient *http.Client, logger framework.Logger) *CredentialBroker {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &CredentialBroker{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
		tokens:     make(map[string]AuthToken),
	}
}

// ObtainToken returns a token for the identity, registering it first if this
// is the identity's first acquisition through this broker. Repeated calls
// for the same identity return the cached token without any network calls.
func (b *CredentialBroker) ObtainToken(identity Identity) (AuthToken, error) {
	b.lock.Lock()
	if token, ok := b.tokens[identity.Email]; ok {
		b.lock.Unlock()
		return token, nil
	}
	b.lock.Unlock()

	b.register(identity)

	token, status, err := b.Login(identity)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", &AuthFailure{Status: status}
	}

	b.lock.Lock()
	b.tokens[identity.Email] = token
	b.lock.Unlock()
	return token, nil
}

// Login performs a single login call with no registration, caching, or
// retry. Negative-path scenarios use it directly to observe the raw status.
func (b *CredentialBroker) Login(identity Identity) (AuthToken, int, error) {
	status, body, err := b.postJSON("/login", credentialsBody{Email: identity.Email, Password: identity.Password})
	if err != nil {
		return "", 0, err
	}
	if status < 200 || status >= 300 {
		return "", status, nil
	}
	var parsed loginResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		b.logger.Printf("Malformed login response: %s", string(body))
		return "", status, nil
	}
	return AuthToken(parsed.Token), status, nil
}

// register creates the identity's account. Any failure, including the
// duplicate case, is logged and dropped.
func (b *CredentialBroker) register(identity Identity) {
	status, body, err := b.postJSON("/register", credentialsBody{Email: identity.Email, Password: identity.Password})
	if err != nil {
		b.logger.Printf("Register request for %s failed (ignored): %s", identity.Email, err)
		return
	}
	b.logger.Printf("Register for %s returned status %d (ignored): %s", identity.Email, status, string(body))
}

func (b *CredentialBroker) postJSON(path string, payload interface{}) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}
	resp, err := b.httpClient.Post(b.baseURL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}
