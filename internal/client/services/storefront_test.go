package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fzon/storefront/internal/client/catalog"
	"github.com/fzon/storefront/internal/client/client"
	"github.com/fzon/storefront/internal/client/models"
	"github.com/fzon/storefront/internal/client/session"
	"github.com/fzon/storefront/internal/common"
	"github.com/fzon/storefront/internal/logging"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fake client ----

type fakeClient struct {
	cartCount int

	productsToken string
	products      []models.Product
	productsErr   error

	orderKeys []string
	orderErrs []error

	ordersErr  error
	orders     []models.Order
	orderData  *models.OrderData
	balance    decimal.Decimal
	balanceErr error
	toppedUp   []decimal.Decimal

	added      []models.NewProduct
	addErr     error
	fetchCalls int
}

var _ client.Client = (*fakeClient)(nil)

func (f *fakeClient) Verify(context.Context, string) (*models.Profile, error) {
	return &models.Profile{Username: "alice", CartCount: f.cartCount}, nil
}

func (f *fakeClient) ChangeQuantity(context.Context, string, string, int) (*models.QuantityChange, error) {
	return nil, errors.New("not used")
}

func (f *fakeClient) Login(context.Context, string, string) (string, error) { return "", nil }

func (f *fakeClient) Register(context.Context, string, string, string) (string, error) {
	return "", nil
}

func (f *fakeClient) CreateOrder(_ context.Context, _ string, key string) error {
	f.orderKeys = append(f.orderKeys, key)
	if len(f.orderErrs) == 0 {
		return nil
	}
	err := f.orderErrs[0]
	f.orderErrs = f.orderErrs[1:]
	return err
}

func (f *fakeClient) FetchProducts(_ context.Context, token string) ([]models.Product, error) {
	f.fetchCalls++
	f.productsToken = token
	return f.products, f.productsErr
}

func (f *fakeClient) OrderData(context.Context, string) (*models.OrderData, error) {
	return f.orderData, nil
}

func (f *fakeClient) FetchOrders(context.Context, string) ([]models.Order, error) {
	return f.orders, f.ordersErr
}

func (f *fakeClient) Balance(context.Context, string) (decimal.Decimal, error) {
	return f.balance, f.balanceErr
}

func (f *fakeClient) Ping(context.Context) error { return nil }

func (f *fakeClient) AddProduct(_ context.Context, p models.NewProduct) error {
	f.added = append(f.added, p)
	return f.addErr
}

func (f *fakeClient) TopUp(_ context.Context, _ string, amount decimal.Decimal) error {
	f.toppedUp = append(f.toppedUp, amount)
	return nil
}

type memStore struct{ token string }

func (s *memStore) Load(context.Context) (string, error)   { return s.token, nil }
func (s *memStore) Save(_ context.Context, t string) error { s.token = t; return nil }
func (s *memStore) Clear(context.Context) error            { s.token = ""; return nil }

// ---- helpers ----

type env struct {
	fc    *fakeClient
	guard *session.Guard
	cache *catalog.Cache
	svc   StorefrontService
}

func setup(t *testing.T, authenticated bool) *env {
	t.Helper()
	fc := &fakeClient{cartCount: 2}
	g := session.NewGuard(fc, &memStore{}, logging.Nop())
	if authenticated {
		_, err := g.Accept(context.Background(), "tok")
		require.NoError(t, err)
	}
	c := catalog.NewCache()
	svc := NewStorefrontService(fc, g, c, logging.Nop(), WithOrderRetry(2, time.Millisecond))
	return &env{fc: fc, guard: g, cache: c, svc: svc}
}

// ---- tests ----

func TestRefreshCatalog(t *testing.T) {
	e := setup(t, true)
	e.fc.products = []models.Product{{Article: "0001", Quantity: 2}, {Article: "0002"}}

	n, err := e.svc.RefreshCatalog(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, "tok", e.fc.productsToken)
	assert.Equal(t, 2, e.cache.Quantity("0001"))
}

func TestRefreshCatalog_AnonymousSendsNoToken(t *testing.T) {
	e := setup(t, false)
	e.fc.products = []models.Product{{Article: "0001"}}

	_, err := e.svc.RefreshCatalog(context.Background())
	require.NoError(t, err)
	assert.Empty(t, e.fc.productsToken)
}

func TestRefreshCatalog_ErrorKeepsCache(t *testing.T) {
	e := setup(t, true)
	e.cache.Load([]models.Product{{Article: "0001", Quantity: 1}})
	e.fc.productsErr = client.ErrUnavailable

	_, err := e.svc.RefreshCatalog(context.Background())
	require.ErrorIs(t, err, client.ErrUnavailable)
	assert.Equal(t, 1, e.cache.Quantity("0001"))
}

func TestAuthenticatedCallsRequireSession(t *testing.T) {
	e := setup(t, false)
	ctx := context.Background()

	_, err := e.svc.OrderData(ctx)
	assert.ErrorIs(t, err, session.ErrNoToken)
	_, err = e.svc.Orders(ctx)
	assert.ErrorIs(t, err, session.ErrNoToken)
	_, err = e.svc.Balance(ctx)
	assert.ErrorIs(t, err, session.ErrNoToken)
	assert.ErrorIs(t, e.svc.CreateOrder(ctx), session.ErrNoToken)
	assert.ErrorIs(t, e.svc.TopUp(ctx, decimal.NewFromInt(5)), session.ErrNoToken)

	assert.Empty(t, e.fc.orderKeys)
	assert.Empty(t, e.fc.toppedUp)
}

func TestUnauthorizedInvalidatesSession(t *testing.T) {
	e := setup(t, true)
	e.fc.ordersErr = &client.APIError{Status: 403}

	_, err := e.svc.Orders(context.Background())
	require.ErrorIs(t, err, client.ErrUnauthorized)
	assert.False(t, e.guard.IsAuthenticated())
}

func TestTransientErrorKeepsSession(t *testing.T) {
	e := setup(t, true)
	e.fc.balanceErr = client.ErrUnavailable

	_, err := e.svc.Balance(context.Background())
	require.ErrorIs(t, err, client.ErrUnavailable)
	assert.True(t, e.guard.IsAuthenticated())
}

func TestCreateOrder_RefreshesBadgeAndCatalog(t *testing.T) {
	e := setup(t, true)
	e.cache.Load([]models.Product{{Article: "0001", Quantity: 2}})
	e.fc.cartCount = 0
	e.fc.products = []models.Product{{Article: "0001"}}

	require.NoError(t, e.svc.CreateOrder(context.Background()))

	require.Len(t, e.fc.orderKeys, 1)
	assert.NotEmpty(t, e.fc.orderKeys[0])
	assert.Zero(t, e.guard.Snapshot().CartCount)
	assert.Zero(t, e.cache.Quantity("0001"))
}

func TestCreateOrder_RetriesWithSameKey(t *testing.T) {
	e := setup(t, true)
	e.fc.orderErrs = []error{client.ErrUnavailable, &client.APIError{Status: 502}}

	require.NoError(t, e.svc.CreateOrder(context.Background()))

	require.Len(t, e.fc.orderKeys, 3)
	assert.Equal(t, e.fc.orderKeys[0], e.fc.orderKeys[1])
	assert.Equal(t, e.fc.orderKeys[0], e.fc.orderKeys[2])
}

func TestCreateOrder_ClientErrorIsNotRetried(t *testing.T) {
	e := setup(t, true)
	e.fc.orderErrs = []error{&client.APIError{Status: 400, Message: "cart is empty"}}

	err := e.svc.CreateOrder(context.Background())
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
	assert.Len(t, e.fc.orderKeys, 1)
}

func TestCreateOrder_FreshKeyPerOrder(t *testing.T) {
	e := setup(t, true)

	require.NoError(t, e.svc.CreateOrder(context.Background()))
	require.NoError(t, e.svc.CreateOrder(context.Background()))

	require.Len(t, e.fc.orderKeys, 2)
	assert.NotEqual(t, e.fc.orderKeys[0], e.fc.orderKeys[1])
}

func TestTopUp(t *testing.T) {
	e := setup(t, true)

	err := e.svc.TopUp(context.Background(), decimal.Zero)
	require.ErrorIs(t, err, common.ErrInvalidAmount)

	require.NoError(t, e.svc.TopUp(context.Background(), decimal.RequireFromString("12.50")))
	require.Len(t, e.fc.toppedUp, 1)
	assert.True(t, e.fc.toppedUp[0].Equal(decimal.RequireFromString("12.5")))
}

func TestReads(t *testing.T) {
	e := setup(t, true)
	e.fc.orderData = &models.OrderData{CartCount: 2}
	e.fc.orders = []models.Order{{ID: "o1"}}
	e.fc.balance = decimal.NewFromInt(40)

	d, err := e.svc.OrderData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, d.CartCount)

	orders, err := e.svc.Orders(context.Background())
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	b, err := e.svc.Balance(context.Background())
	require.NoError(t, err)
	assert.True(t, b.Equal(decimal.NewFromInt(40)))
}

func TestAddProduct_ReloadsCatalog(t *testing.T) {
	e := setup(t, false)
	e.fc.products = []models.Product{{Article: "0001"}, {Article: "0002", Name: "Mug"}}

	p := models.NewProduct{Name: "Mug", Price: decimal.NewFromInt(5), Description: "white", SellerName: "ACME", Rating: 4}
	require.NoError(t, e.svc.AddProduct(context.Background(), p))

	require.Len(t, e.fc.added, 1)
	assert.Equal(t, "Mug", e.fc.added[0].Name)
	assert.Equal(t, 1, e.fc.fetchCalls)
	got, ok := e.cache.Product("0002")
	require.True(t, ok)
	assert.Equal(t, "Mug", got.Name)
}

func TestAddProduct_RejectedSkipsReload(t *testing.T) {
	e := setup(t, true)
	e.fc.addErr = &client.FieldError{Field: "rating", Message: "must be between 1 and 5"}

	err := e.svc.AddProduct(context.Background(), models.NewProduct{Name: "Mug"})

	var fe *client.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "rating", fe.Field)
	assert.Zero(t, e.fc.fetchCalls)
	assert.True(t, e.guard.IsAuthenticated())
}
