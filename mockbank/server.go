// Package mockbank is an in-memory double of the MyBank expense API, used
// by the harness's own tests and by -selftest runs. It reproduces the real
// service's observable quirks on purpose: registration rejects duplicates,
// created records get numeric server ids even though callers send string
// correlation keys, and list reads can be made to lag mutations so that
// convergence polling has something to converge over.
package mockbank

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mybank/expense-contract-tests/oracle"
)

type storedExpense struct {
	ID            int
	CorrelationID string
	Type          string
	Amount        string
	Direction     string
	Location      string
	Product       string
}

// Server holds all mock state. One Server instance backs one self-test run.
type Server struct {
	mu       sync.Mutex
	users    map[string]string          // email -> password
	tokens   map[string]string          // token -> email
	expenses map[string][]storedExpense // email -> records
	nextID   int

	// eventual-consistency simulation
	pendingLag int
	staleReads int
	stale      map[string][]storedExpense
}

func NewServer() *Server {
	return &Server{
		users:    make(map[string]string),
		tokens:   make(map[string]string),
		expenses: make(map[string][]storedExpense),
		stale:    make(map[string][]storedExpense),
		nextID:   1,
	}
}

// SeedUser registers an account directly, bypassing the HTTP surface. Used
// to stand in for identities that exist out-of-band on the real service,
// like the fixed admin fixture.
func (s *Server) SeedUser(email, password string) {
	s.mu.Lock()
	s.users[email] = password
	s.mu.Unlock()
}

// SetListLag arranges for the next mutation to leave n stale list reads
// behind it: those reads return the pre-mutation state, after which the
// store becomes consistent again.
func (s *Server) SetListLag(n int) {
	s.mu.Lock()
	s.pendingLag = n
	s.mu.Unlock()
}

// Handler returns the HTTP surface of the mock service.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.handleHome)
	r.Post("/register", s.handleRegister)
	r.Post("/login", s.handleLogin)
	r.Route("/expenses", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)
		r.Put("/{id}", s.handleUpdate)
		r.Delete("/{id}", s.handleDelete)
	})
	return r
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write([]byte("<html><head><title>MyBank</title></head><body></body></html>"))
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed body")
		return
	}
	if !oracle.IsEmailValid(creds.Email) || !oracle.IsPasswordValid(creds.Password) {
		writeJSONError(w, http.StatusBadRequest, "invalid email or password")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[creds.Email]; exists {
		writeJSONError(w, http.StatusConflict, "user already exists")
		return
	}
	s.users[creds.Email] = creds.Password
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	password, exists := s.users[creds.Email]
	if !exists || password != creds.Password {
		writeJSONError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token := uuid.NewString()
	s.tokens[token] = creds.Email
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header {
			writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		s.mu.Lock()
		email, ok := s.tokens[token]
		s.mu.Unlock()
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "unknown token")
			return
		}
		next.ServeHTTP(w, r.WithContext(withEmail(r.Context(), email)))
	})
}

type expenseBody struct {
	ID        string `json:"Id"`
	Type      string `json:"type"`
	Amount    string `json:"amount"`
	Direction string `json:"direction"`
	Location  string `json:"location"`
	Product   string `json:"product"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	email := emailFrom(r.Context())
	var body expenseBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beforeMutation(email)
	exp := storedExpense{
		ID:            s.nextID,
		CorrelationID: body.ID,
		Type:          body.Type,
		Amount:        body.Amount,
		Direction:     body.Direction,
		Location:      body.Location,
		Product:       body.Product,
	}
	s.nextID++
	s.expenses[email] = append(s.expenses[email], exp)
	// the real service assigns its own numeric id regardless of the
	// caller-supplied correlation key
	writeJSON(w, http.StatusCreated, map[string]interface{}{"id": exp.ID})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	email := emailFrom(r.Context())
	s.mu.Lock()
	records := s.expenses[email]
	if s.staleReads > 0 {
		if snapshot, ok := s.stale[email]; ok {
			records = snapshot
			s.staleReads--
		}
	}
	out := make([]map[string]interface{}, 0, len(records))
	for _, e := range records {
		out = append(out, map[string]interface{}{
			"id":        e.ID,
			"type":      e.Type,
			"amount":    e.Amount,
			"direction": e.Direction,
			"location":  e.Location,
			"product":   e.Product,
		})
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	email := emailFrom(r.Context())
	id := chi.URLParam(r, "id")
	var body expenseBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.expenses[email]
	for i := range records {
		if matchesID(records[i], id) {
			s.beforeMutation(email)
			records[i].Type = body.Type
			records[i].Amount = body.Amount
			records[i].Direction = body.Direction
			records[i].Location = body.Location
			records[i].Product = body.Product
			w.WriteHeader(http.StatusOK)
			return
		}
	}
	writeJSONError(w, http.StatusNotFound, "no such expense")
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	email := emailFrom(r.Context())
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.expenses[email]
	for i := range records {
		if matchesID(records[i], id) {
			s.beforeMutation(email)
			s.expenses[email] = append(records[:i:i], records[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSONError(w, http.StatusNotFound, "no such expense")
}

// beforeMutation snapshots the current state when a list lag is pending, so
// subsequent reads can serve the pre-mutation view. Callers hold s.mu.
func (s *Server) beforeMutation(email string) {
	if s.pendingLag > 0 {
		s.stale[email] = append([]storedExpense(nil), s.expenses[email]...)
		s.staleReads = s.pendingLag
		s.pendingLag = 0
	}
}

// matchesID accepts either identifier, like the real service appears to.
func matchesID(e storedExpense, id string) bool {
	return id == fmt.Sprintf("%d", e.ID) || (e.CorrelationID != "" && id == e.CorrelationID)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
