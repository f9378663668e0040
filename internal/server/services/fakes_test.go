package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fzon/storefront/internal/common"
	"github.com/fzon/storefront/internal/dbx"
	"github.com/fzon/storefront/internal/server/config"
	"github.com/fzon/storefront/internal/server/models"
	"github.com/fzon/storefront/internal/server/repositories/accounts"
	"github.com/fzon/storefront/internal/server/repositories/carts"
	"github.com/fzon/storefront/internal/server/repositories/orders"
	"github.com/fzon/storefront/internal/server/repositories/outbox"
	"github.com/fzon/storefront/internal/server/repositories/products"
	"github.com/fzon/storefront/internal/server/repositories/users"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func init() { bcryptCost = bcrypt.MinCost }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:             "k",
		TokenTTL:              time.Hour,
		MaxQuantity:           3,
		SettlementInterval:    time.Millisecond,
		SettlementBatch:       10,
		SettlementSuccessRate: 0.5,
		PresignTTL:            time.Minute,
	}
}

// memDB is the shared state behind the fake repositories. Transactions are
// not emulated, sqlmock checks that they begin and end.
type memDB struct {
	mu sync.Mutex

	users    map[string]*models.User
	products map[string]*models.Product
	cart     map[string]map[string]int
	orders   map[string]*models.Order
	outbox   []models.OutboxMessage
	balances map[string]decimal.Decimal
	locked   []string

	err error
}

func newMemDB() *memDB {
	return &memDB{
		users:    map[string]*models.User{},
		products: map[string]*models.Product{},
		cart:     map[string]map[string]int{},
		orders:   map[string]*models.Order{},
		balances: map[string]decimal.Decimal{},
	}
}

func (m *memDB) addUser(id, login, name string) {
	m.users[id] = &models.User{ID: id, Login: login, Name: name}
}

func (m *memDB) addProduct(article, name, price string) {
	m.products[article] = &models.Product{Article: article, Name: name, Price: decimal.RequireFromString(price)}
}

type fakeRM struct {
	m *memDB
}

func (f *fakeRM) RunMigrations(context.Context, *sql.DB) error { return nil }
func (f *fakeRM) Users(dbx.DBTX) users.Repository              { return &fakeUsers{f.m} }
func (f *fakeRM) Products(dbx.DBTX) products.Repository        { return &fakeProducts{f.m} }
func (f *fakeRM) Carts(dbx.DBTX) carts.Repository              { return &fakeCarts{f.m} }
func (f *fakeRM) Orders(dbx.DBTX) orders.Repository            { return &fakeOrders{f.m} }
func (f *fakeRM) Outbox(dbx.DBTX) outbox.Repository            { return &fakeOutbox{f.m} }
func (f *fakeRM) Accounts(dbx.DBTX) accounts.Repository        { return &fakeAccounts{f.m} }

// ---- users ----

type fakeUsers struct{ m *memDB }

func (r *fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.err != nil {
		return nil, r.m.err
	}
	for _, x := range r.m.users {
		if x.Login == u.Login {
			return nil, common.ErrAlreadyExists
		}
	}
	u.ID = "u-" + u.Login
	r.m.users[u.ID] = u
	return u, nil
}

func (r *fakeUsers) GetByLogin(_ context.Context, login string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, x := range r.m.users {
		if x.Login == login {
			return x, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if u, ok := r.m.users[id]; ok {
		return u, nil
	}
	return nil, common.ErrNotFound
}

// ---- products ----

type fakeProducts struct{ m *memDB }

func (r *fakeProducts) List(_ context.Context, userID string) ([]models.Product, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.err != nil {
		return nil, r.m.err
	}
	var out []models.Product
	for _, p := range r.m.products {
		cp := *p
		cp.Quantity = r.m.cart[userID][p.Article]
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Article < out[j].Article })
	return out, nil
}

func (r *fakeProducts) Get(_ context.Context, article string) (*models.Product, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if p, ok := r.m.products[article]; ok {
		return p, nil
	}
	return nil, common.ErrNotFound
}

func (r *fakeProducts) Create(_ context.Context, p *models.Product) (*models.Product, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.err != nil {
		return nil, r.m.err
	}
	p.Article = fmt.Sprintf("%04d", len(r.m.products)+1)
	r.m.products[p.Article] = p
	return p, nil
}

// ---- carts ----

type fakeCarts struct{ m *memDB }

func (r *fakeCarts) LockOwner(_ context.Context, userID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[userID]; !ok {
		return common.ErrNotFound
	}
	r.m.locked = append(r.m.locked, userID)
	return nil
}

func (r *fakeCarts) Quantity(_ context.Context, userID, article string) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.cart[userID][article], nil
}

func (r *fakeCarts) Set(_ context.Context, userID, article string, q int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.cart[userID] == nil {
		r.m.cart[userID] = map[string]int{}
	}
	if q <= 0 {
		delete(r.m.cart[userID], article)
		return nil
	}
	r.m.cart[userID][article] = q
	return nil
}

func (r *fakeCarts) Add(_ context.Context, userID, article string, n, limit int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.cart[userID] == nil {
		r.m.cart[userID] = map[string]int{}
	}
	r.m.cart[userID][article] = min(r.m.cart[userID][article]+n, limit)
	return nil
}

func (r *fakeCarts) Total(_ context.Context, userID string) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	total := 0
	for _, q := range r.m.cart[userID] {
		total += q
	}
	return total, nil
}

func (r *fakeCarts) Items(_ context.Context, userID string) ([]models.CartItem, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.CartItem
	for article, q := range r.m.cart[userID] {
		p := r.m.products[article]
		out = append(out, models.CartItem{Article: article, Name: p.Name, Quantity: q, Price: p.Price})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Article < out[j].Article })
	return out, nil
}

func (r *fakeCarts) Clear(_ context.Context, userID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.cart, userID)
	return nil
}

// ---- orders ----

type fakeOrders struct{ m *memDB }

func (r *fakeOrders) Create(_ context.Context, o *models.Order) (*models.Order, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, x := range r.m.orders {
		if x.UserID == o.UserID && x.IdempotencyKey == o.IdempotencyKey {
			return nil, common.ErrOrderAlreadyExists
		}
	}
	o.ID = "o-" + o.IdempotencyKey
	r.m.orders[o.ID] = o
	return o, nil
}

func (r *fakeOrders) AddItems(_ context.Context, orderID string, items []models.CartItem) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.orders[orderID].Items = append(r.m.orders[orderID].Items, items...)
	return nil
}

func (r *fakeOrders) Items(_ context.Context, orderID string) ([]models.CartItem, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.orders[orderID].Items, nil
}

func (r *fakeOrders) List(_ context.Context, userID string) ([]models.Order, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.Order
	for _, o := range r.m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOrders) SetStatus(_ context.Context, orderID string, s models.OrderStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	o, ok := r.m.orders[orderID]
	if !ok {
		return common.ErrNotFound
	}
	o.Status = s
	return nil
}

// ---- outbox ----

type fakeOutbox struct{ m *memDB }

func (r *fakeOutbox) Enqueue(_ context.Context, id, orderID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	o := r.m.orders[orderID]
	r.m.outbox = append(r.m.outbox, models.OutboxMessage{ID: id, OrderID: orderID, UserID: o.UserID, Sum: o.Sum})
	return nil
}

func (r *fakeOutbox) Claim(_ context.Context, limit int) ([]models.OutboxMessage, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.err != nil {
		return nil, r.m.err
	}
	n := min(limit, len(r.m.outbox))
	return append([]models.OutboxMessage(nil), r.m.outbox[:n]...), nil
}

func (r *fakeOutbox) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for i, msg := range r.m.outbox {
		if msg.ID == id {
			r.m.outbox = append(r.m.outbox[:i], r.m.outbox[i+1:]...)
			break
		}
	}
	return nil
}

// ---- accounts ----

type fakeAccounts struct{ m *memDB }

func (r *fakeAccounts) Balance(_ context.Context, userID string) (decimal.Decimal, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.balances[userID], nil
}

func (r *fakeAccounts) Credit(_ context.Context, userID string, amount decimal.Decimal) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.balances[userID] = r.m.balances[userID].Add(amount)
	return nil
}

func (r *fakeAccounts) Debit(_ context.Context, userID string, amount decimal.Decimal) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.balances[userID].LessThan(amount) {
		return common.ErrInsufficientBalance
	}
	r.m.balances[userID] = r.m.balances[userID].Sub(amount)
	return nil
}
