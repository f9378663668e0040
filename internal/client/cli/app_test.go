package cli

import (
	"context"
	"testing"

	"github.com/fzon/storefront/internal/client/cart"
	"github.com/fzon/storefront/internal/client/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApp_AnonymousAddOpensDialog(t *testing.T) {
	b := newBackend(t)
	store := &memStore{}
	a := newTestApp(t, b, store)
	out := captureOutput(t)
	stubInputs(t, []string{"alice"}, []string{"secret"})
	ctx := context.Background()

	require.NoError(t, a.Reload(ctx))
	assert.Equal(t, 2, a.cache.Len())
	assert.False(t, a.isLoggedIn())

	require.NoError(t, a.Change(ctx, cart.CommandAdd, []string{"0001"}))
	assert.Zero(t, b.changeCount(), "click without a session must not reach the cart service")
	assert.True(t, containsLine(out(), "Sign in to change your cart."))
	assert.True(t, containsLine(out(), "Welcome, Alice!"))
	assert.True(t, a.isLoggedIn())
	assert.Equal(t, "tok-alice", store.Token())
	assert.False(t, a.gate.Visible())

	require.NoError(t, a.Change(ctx, cart.CommandAdd, []string{"0001"}))
	assert.Equal(t, 1, b.changeCount())
	assert.Equal(t, 1, a.cache.Quantity("0001"))
	assert.Equal(t, 1, a.guard.Snapshot().CartCount)
}

func TestApp_RestoredSession(t *testing.T) {
	b := newBackend(t)
	b.carts["alice"] = map[string]int{"0002": 2}
	a := newTestApp(t, b, &memStore{token: "tok-alice"})
	captureOutput(t)

	require.NoError(t, a.Reload(context.Background()))

	assert.True(t, a.isLoggedIn())
	snap := a.guard.Snapshot()
	assert.Equal(t, "Alice", snap.Username)
	assert.Equal(t, 2, snap.CartCount)
	assert.Equal(t, 2, a.cache.Quantity("0002"))
	assert.Equal(t, "(Alice online)", a.getStatus())
}

func TestApp_RevokedTokenInvalidatesSession(t *testing.T) {
	b := newBackend(t)
	b.carts["alice"] = map[string]int{"0002": 2}
	store := &memStore{token: "tok-alice"}
	a := newTestApp(t, b, store)
	out := captureOutput(t)
	ctx := context.Background()
	require.NoError(t, a.Reload(ctx))

	b.revoke("tok-alice")
	stubInputs(t, []string{""}, nil)

	require.NoError(t, a.Change(ctx, cart.CommandIncrease, []string{"0002"}))

	assert.True(t, containsLine(out(), "Your session has expired"))
	assert.True(t, containsLine(out(), "Cancelled."))
	assert.False(t, a.isLoggedIn())
	assert.Empty(t, store.Token())
	assert.Zero(t, a.guard.Snapshot().CartCount)
	assert.False(t, a.gate.Visible())

	assert.Zero(t, a.cache.Quantity("0002"))
	assert.Equal(t, a.cache.Sum(), a.guard.Snapshot().CartCount)
	assert.NotContains(t, a.grid.RenderLine("0002"), "[-]")
}

func TestApp_RepeatedClicksSerialized(t *testing.T) {
	b := newBackend(t)
	a := newTestApp(t, b, &memStore{token: "tok-alice"}, func(c *config.Config) {
		c.Ordering = cart.OrderSerialize
	})
	captureOutput(t)
	ctx := context.Background()
	require.NoError(t, a.Reload(ctx))

	require.NoError(t, a.Change(ctx, cart.CommandIncrease, []string{"0001", "3"}))

	assert.Equal(t, 3, b.changeCount())
	assert.Equal(t, 3, a.cache.Quantity("0001"))
	assert.Equal(t, 3, a.guard.Snapshot().CartCount)
	assert.Zero(t, a.coord.Pending("0001"))
}

func TestApp_ChangeArguments(t *testing.T) {
	b := newBackend(t)
	a := newTestApp(t, b, &memStore{token: "tok-alice"})
	out := captureOutput(t)
	ctx := context.Background()
	require.NoError(t, a.Reload(ctx))

	require.NoError(t, a.Change(ctx, cart.CommandAdd, nil))
	require.NoError(t, a.Change(ctx, cart.CommandAdd, []string{"0001", "x"}))
	require.NoError(t, a.Change(ctx, cart.CommandAdd, []string{"0001", "99"}))
	require.NoError(t, a.Change(ctx, cart.CommandAdd, []string{"9999"}))

	assert.Zero(t, b.changeCount())
	lines := out()
	assert.True(t, containsLine(lines, "Usage: add <article> [times]"))
	assert.True(t, containsLine(lines, "times must be between 1 and 10"))
	assert.True(t, containsLine(lines, "Unknown article: 9999"))
}

func TestApp_DecreaseAtZeroIsRejectedLocally(t *testing.T) {
	b := newBackend(t)
	a := newTestApp(t, b, &memStore{token: "tok-alice"})
	out := captureOutput(t)
	ctx := context.Background()
	require.NoError(t, a.Reload(ctx))

	require.NoError(t, a.Change(ctx, cart.CommandDecrease, []string{"0001"}))

	assert.Zero(t, b.changeCount())
	assert.True(t, containsLine(out(), "Nothing to remove."))
}

func TestCheckSession(t *testing.T) {
	b := newBackend(t)
	a := newTestApp(t, b, &memStore{})
	ctx := context.Background()

	b.setHealthy(false)
	a.checkSession(ctx)
	assert.Equal(t, ModeOffline, a.Mode())
	assert.Equal(t, "(offline)", a.getStatus())

	b.setHealthy(true)
	a.checkSession(ctx)
	assert.Equal(t, ModeOnline, a.Mode())
}

func TestCheckSession_RevokedTokenStaysOnline(t *testing.T) {
	b := newBackend(t)
	store := &memStore{token: "tok-alice"}
	a := newTestApp(t, b, store)
	captureOutput(t)
	ctx := context.Background()
	require.NoError(t, a.Reload(ctx))

	b.revoke("tok-alice")
	a.checkSession(ctx)

	assert.Equal(t, ModeOnline, a.Mode())
	assert.False(t, a.isLoggedIn())
	assert.Empty(t, store.Token())
	assert.Zero(t, a.cache.Sum())
}

func TestCheckSession_ServerDown(t *testing.T) {
	b := newBackend(t)
	store := &memStore{token: "tok-alice"}
	a := newTestApp(t, b, store)
	captureOutput(t)
	ctx := context.Background()
	require.NoError(t, a.Reload(ctx))

	b.srv.Close()
	a.checkSession(ctx)

	assert.Equal(t, ModeOffline, a.Mode())
	assert.True(t, a.isLoggedIn(), "a transport failure is not an auth failure")
	assert.Equal(t, "tok-alice", store.Token())
}

func TestRoot_SignInFromREPL(t *testing.T) {
	b := newBackend(t)
	store := &memStore{}
	a := newTestAppWithInput(t, b, store, "add 0001\nalice\nsecret\nadd 0001\nexit\n")
	out := captureOutput(t)
	stubTerminal(t, false, nil, nil)

	a.Root(context.Background())

	assert.Equal(t, 1, b.changeCount())
	assert.Equal(t, "tok-alice", store.Token())
	assert.Equal(t, 1, a.cache.Quantity("0001"))
	assert.True(t, containsLine(out(), "Bye!"))
}

func TestApp_AddProductListsAndReloads(t *testing.T) {
	b := newBackend(t)
	a := newTestApp(t, b, &memStore{})
	out := captureOutput(t)
	ctx := context.Background()
	require.NoError(t, a.Reload(ctx))

	stubInputs(t, []string{"Teapot", "31.00", "cast iron", "ACME", "5"}, nil)
	require.NoError(t, a.AddProduct(ctx))

	assert.True(t, containsLine(out(), "Product listed."))
	assert.Equal(t, 3, a.cache.Len())
	_, ok := a.cache.Get("0003")
	assert.True(t, ok)
}

func TestApp_AddProductRejected(t *testing.T) {
	b := newBackend(t)
	a := newTestApp(t, b, &memStore{})
	out := captureOutput(t)
	ctx := context.Background()
	require.NoError(t, a.Reload(ctx))

	stubInputs(t, []string{"Teapot", "31.00", "cast iron", "ACME", "9"}, nil)
	require.Error(t, a.AddProduct(ctx))
	assert.True(t, containsLine(out(), "Rejected: rating: must be between 1 and 5"))
	assert.Equal(t, 2, a.cache.Len())

	stubInputs(t, []string{"Teapot", "abc", "", "", ""}, nil)
	require.NoError(t, a.AddProduct(ctx))
	assert.True(t, containsLine(out(), "Invalid price: abc"))

	stubInputs(t, []string{""}, nil)
	require.NoError(t, a.AddProduct(ctx))
	assert.True(t, containsLine(out(), "Cancelled."))
}
