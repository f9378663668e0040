package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fzon/storefront/internal/client/cart"
	"github.com/fzon/storefront/internal/client/client"
	"github.com/fzon/storefront/internal/client/config"
	"github.com/fzon/storefront/internal/common"
	"github.com/fzon/storefront/internal/logging"
	"github.com/fzon/storefront/internal/shared"
	"github.com/shopspring/decimal"
)

// captureOutput replaces printlnFn and returns the collected lines.
func captureOutput(t *testing.T) func() []string {
	t.Helper()
	var (
		mu    sync.Mutex
		lines []string
	)
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), lines...)
	}
}

func containsLine(lines []string, substr string) bool {
	for _, l := range lines {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

// stubInputs feeds the dialog prompts from queues. An empty queue reads as EOF.
func stubInputs(t *testing.T, texts []string, passwords []string) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if len(texts) == 0 {
			return "", io.EOF
		}
		s := texts[0]
		texts = texts[1:]
		return s, nil
	}
	getPassword = func(_ *bufio.Reader, _ io.Writer) ([]byte, error) {
		if len(passwords) == 0 {
			return nil, io.EOF
		}
		p := passwords[0]
		passwords = passwords[1:]
		return []byte(p), nil
	}
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})
}

type memStore struct {
	mu    sync.Mutex
	token string
}

func (s *memStore) Load(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *memStore) Save(_ context.Context, t string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = t
	return nil
}

func (s *memStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

func (s *memStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// backend is a small in-memory storefront server.
type backend struct {
	mu       sync.Mutex
	users    map[string]string // login -> password
	names    map[string]string // login -> display name
	tokens   map[string]string // token -> login
	carts    map[string]map[string]int
	products []string
	healthy  bool
	changes  int
	srv      *httptest.Server
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{
		users:    map[string]string{"alice": "secret"},
		names:    map[string]string{"alice": "Alice"},
		tokens:   map[string]string{"tok-alice": "alice"},
		carts:    map[string]map[string]int{},
		products: []string{"0001", "0002"},
		healthy:  true,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(shared.PathHealth, b.health)
	mux.HandleFunc(shared.PathVerify, b.verify)
	mux.HandleFunc(shared.PathLogin, b.login)
	mux.HandleFunc(shared.PathRegister, b.register)
	mux.HandleFunc(shared.PathProducts, b.listProducts)
	mux.HandleFunc(shared.PathChangeQuantity, b.changeQuantity)
	mux.HandleFunc(shared.PathAddProduct, b.addProduct)
	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) revoke(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.tokens, token)
}

func (b *backend) setHealthy(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.healthy = ok
}

func (b *backend) changeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.changes
}

func (b *backend) user(r *http.Request) (string, bool) {
	tok := strings.TrimPrefix(r.Header.Get(common.AuthorizationHeader), common.BearerPrefix)
	login, ok := b.tokens[tok]
	return login, ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *backend) health(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("{}"))
}

func (b *backend) total(login string) int {
	n := 0
	for _, q := range b.carts[login] {
		n += q
	}
	return n
}

func (b *backend) verify(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	login, ok := b.user(r)
	if !ok {
		writeJSON(w, http.StatusForbidden, shared.ErrorResponse{Error: "invalid token"})
		return
	}
	writeJSON(w, http.StatusOK, shared.VerifyResponse{Username: b.names[login], CartCount: b.total(login)})
}

func (b *backend) login(w http.ResponseWriter, r *http.Request) {
	var req shared.LoginRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	b.mu.Lock()
	defer b.mu.Unlock()
	pw, ok := b.users[req.Login]
	switch {
	case !ok:
		writeJSON(w, http.StatusOK, shared.AuthResponse{Field: "login", Error: "user not found"})
	case pw != req.Password:
		writeJSON(w, http.StatusOK, shared.AuthResponse{Field: "password", Error: "wrong password"})
	default:
		tok := "tok-" + req.Login
		b.tokens[tok] = req.Login
		writeJSON(w, http.StatusOK, shared.AuthResponse{Token: tok})
	}
}

func (b *backend) register(w http.ResponseWriter, r *http.Request) {
	var req shared.RegisterRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, taken := b.users[req.Login]; taken {
		writeJSON(w, http.StatusBadRequest, shared.AuthResponse{Field: "login", Error: "login already taken"})
		return
	}
	b.users[req.Login] = req.Password
	b.names[req.Login] = req.Name
	tok := "tok-" + req.Login
	b.tokens[tok] = req.Login
	writeJSON(w, http.StatusOK, shared.AuthResponse{Token: tok})
}

func (b *backend) listProducts(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	login, _ := b.user(r)
	out := shared.ProductsResponse{Products: map[string]shared.Product{}}
	for _, a := range b.products {
		out.Products[a] = shared.Product{
			Name:            "Product " + a,
			SellerName:      "ACME",
			Price:           decimal.NewFromInt(100),
			Rating:          4.5,
			ProductQuantity: b.carts[login][a],
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *backend) changeQuantity(w http.ResponseWriter, r *http.Request) {
	var req shared.ChangeQuantityRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.changes++
	login, ok := b.user(r)
	if !ok {
		writeJSON(w, http.StatusForbidden, shared.ErrorResponse{Error: "invalid token"})
		return
	}
	items := b.carts[login]
	if items == nil {
		items = map[string]int{}
		b.carts[login] = items
	}
	items[req.Article] = max(0, items[req.Article]+req.Delta)
	total, product := b.total(login), items[req.Article]
	writeJSON(w, http.StatusOK, shared.ChangeQuantityResponse{TotalCount: &total, ProductCount: &product})
}

func (b *backend) addProduct(w http.ResponseWriter, r *http.Request) {
	var req shared.AddProductRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if req.Rating == nil || *req.Rating < 1 || *req.Rating > 5 {
		writeJSON(w, http.StatusBadRequest, shared.FieldErrorResponse{Field: "rating", Error: "must be between 1 and 5"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.products = append(b.products, fmt.Sprintf("%04d", len(b.products)+1))
	w.WriteHeader(http.StatusNoContent)
}

func testConfig() *config.Config {
	return &config.Config{
		VerifyInterval:  time.Hour,
		MutationTimeout: time.Second,
		Ordering:        cart.OrderSequence,
		BackoffAttempts: 1,
		BackoffBase:     time.Millisecond,
	}
}

func newTestApp(t *testing.T, b *backend, store *memStore, opts ...func(*config.Config)) *App {
	t.Helper()
	return newTestAppWithInput(t, b, store, "", opts...)
}

func newTestAppWithInput(t *testing.T, b *backend, store *memStore, input string, opts ...func(*config.Config)) *App {
	t.Helper()
	cfg := testConfig()
	for _, o := range opts {
		o(cfg)
	}
	a := newApp(cfg, logging.Nop(), client.NewHTTPClient(b.srv.URL), store, strings.NewReader(input))
	t.Cleanup(a.Close)
	return a
}
