package bank

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/mybank/expense-contract-tests/framework"
)

// expensePayload is the request shape for create and update. The service
// wants the correlation key under "Id", capitalized, unlike everything else.
type expensePayload struct {
	ID        string `json:"Id"`
	Type      string `json:"type"`
	Amount    string `json:"amount"`
	Direction string `json:"direction"`
	Location  string `json:"location"`
	Product   string `json:"product,omitempty"`
}

// expenseListItem tolerates the service's loose response typing: the id may
// be a string or a number depending on which identifier the service echoes,
// and amounts have been seen both ways too.
type expenseListItem struct {
	ID        ldvalue.Value `json:"id"`
	Type      string        `json:"type"`
	Amount    ldvalue.Value `json:"amount"`
	Direction string        `json:"direction"`
	Location  string        `json:"location"`
	Product   string        `json:"product"`
}

// Client performs expense CRUD as one authenticated identity. It issues each
// operation exactly once; retry policy belongs to the lifecycle layer, which
// knows whether an operation is safe to repeat. The last request and
// response bodies are retained for failure diagnostics.
type Client struct {
	baseURL    string
	token      AuthToken
	httpClient *http.Client
	logger     framework.Logger

	lock         sync.Mutex
	lastRequest  string
	lastResponse string
	lastStatus   int
}

func NewClient(baseURL string, token AuthToken, httpClient *http.Client, logger framework.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Create posts a new expense and returns whatever identifier the service
// assigned. If the response carries no id, the record's own correlation key
// is returned as the best available handle.
func (c *Client) Create(rec ExpenseRecord) (ServerID, error) {
	status, body, err := c.do(http.MethodPost, "/expenses", payloadFor(rec))
	if err != nil {
		return ServerID{}, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return ServerID{}, &StatusError{Method: "POST", Path: "/expenses", Status: status, Body: string(body)}
	}
	id := serverIDFromValue(ldvalue.Parse(body).GetByKey("id"))
	if !id.IsDefined() {
		c.logger.Printf("Create response carried no id, falling back to correlation key %q", rec.CorrelationID)
		id = ServerIDFromString(rec.CorrelationID)
	}
	return id, nil
}

// List fetches the identity's current records. Ordering is unspecified and
// callers must not depend on it.
func (c *Client) List() ([]ListedExpense, error) {
	return c.list("/expenses")
}

// ListPage fetches one page of records. The service treats the paging
// parameters as advisory and may ignore them.
func (c *Client) ListPage(page, size int) ([]ListedExpense, error) {
	return c.list(fmt.Sprintf("/expenses?page=%d&size=%d", page, size))
}

func (c *Client) list(path string) ([]ListedExpense, error) {
	status, body, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &StatusError{Method: "GET", Path: path, Status: status, Body: string(body)}
	}
	var items []expenseListItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("malformed expense list response: %w", err)
	}
	out := make([]ListedExpense, 0, len(items))
	for _, item := range items {
		out = append(out, ListedExpense{
			ID:        serverIDFromValue(item.ID),
			Type:      item.Type,
			Amount:    stringify(item.Amount),
			Direction: Direction(item.Direction),
			Location:  item.Location,
			Product:   item.Product,
		})
	}
	return out, nil
}

// Update replaces the record stored under id. NotFound is a modeled outcome,
// not an error.
func (c *Client) Update(id ServerID, rec ExpenseRecord) (Outcome, error) {
	path := "/expenses/" + url.PathEscape(id.String())
	payload := payloadFor(rec)
	payload.ID = id.String()
	status, body, err := c.do(http.MethodPut, path, payload)
	if err != nil {
		return OutcomeOK, err
	}
	switch {
	case status == http.StatusOK || status == http.StatusNoContent:
		return OutcomeOK, nil
	case status == http.StatusNotFound:
		return OutcomeNotFound, nil
	default:
		return OutcomeOK, &StatusError{Method: "PUT", Path: path, Status: status, Body: string(body)}
	}
}

// Delete removes the record stored under id. NotFound is a modeled outcome,
// not an error.
func (c *Client) Delete(id ServerID) (Outcome, error) {
	path := "/expenses/" + url.PathEscape(id.String())
	status, body, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return OutcomeOK, err
	}
	switch {
	case status == http.StatusOK || status == http.StatusNoContent:
		return OutcomeOK, nil
	case status == http.StatusNotFound:
		return OutcomeNotFound, nil
	default:
		return OutcomeOK, &StatusError{Method: "DELETE", Path: path, Status: status, Body: string(body)}
	}
}

// LastExchange returns the last request body, response body, and status seen
// by this client, for attaching to scenario failure reports.
func (c *Client) LastExchange() (requestBody, responseBody string, status int) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.lastRequest, c.lastResponse, c.lastStatus
}

func (c *Client) do(method, path string, payload interface{}) (int, []byte, error) {
	var reqBody []byte
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		reqBody = data
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+string(c.token))

	c.logger.Printf("%s %s body=%s", method, path, string(reqBody))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	c.logger.Printf("%s %s -> %d %s", method, path, resp.StatusCode, string(respBody))

	c.lock.Lock()
	c.lastRequest = string(reqBody)
	c.lastResponse = string(respBody)
	c.lastStatus = resp.StatusCode
	c.lock.Unlock()

	return resp.StatusCode, respBody, nil
}

// ProbeStatus issues an unauthenticated GET, for smoke checks on endpoint
// availability and on the service rejecting tokenless access.
func ProbeStatus(httpClient *http.Client, baseURL, path string) (int, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Get(baseURL + path)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func payloadFor(rec ExpenseRecord) expensePayload {
	return expensePayload{
		ID:        rec.CorrelationID,
		Type:      rec.Type,
		Amount:    rec.Amount,
		Direction: string(rec.Direction),
		Location:  rec.Location,
		Product:   rec.Product,
	}
}

// stringify renders a loosely typed JSON scalar the way the harness compares
// it: strings as-is, numbers without a trailing fractional part.
func stringify(v ldvalue.Value) string {
	switch v.Type() {
	case ldvalue.StringType:
		return v.StringValue()
	case ldvalue.NumberType:
		return serverIDFromValue(v).String()
	default:
		return ""
	}
}
