package cli

import (
	"context"
	"io"
	"testing"

	"github.com/fzon/storefront/internal/client/authgate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_Success(t *testing.T) {
	b := newBackend(t)
	b.carts["alice"] = map[string]int{"0001": 4}
	store := &memStore{}
	a := newTestApp(t, b, store)
	out := captureOutput(t)
	stubInputs(t, []string{"alice"}, []string{"secret"})

	require.NoError(t, a.Login(context.Background()))

	assert.True(t, a.isLoggedIn())
	assert.Equal(t, "tok-alice", store.Token())
	assert.Equal(t, 4, a.guard.Snapshot().CartCount)
	assert.Equal(t, 4, a.cache.Quantity("0001"), "catalog reloaded with the user's quantities")
	assert.True(t, containsLine(out(), "Welcome, Alice!"))
}

func TestLogin_WrongPasswordAsksAgain(t *testing.T) {
	b := newBackend(t)
	a := newTestApp(t, b, &memStore{})
	out := captureOutput(t)
	stubInputs(t, []string{"alice", "alice"}, []string{"nope", "secret"})

	require.NoError(t, a.Login(context.Background()))

	assert.True(t, containsLine(out(), "wrong password"))
	assert.True(t, a.isLoggedIn())
}

func TestLogin_MissingPasswordAsksAgain(t *testing.T) {
	b := newBackend(t)
	a := newTestApp(t, b, &memStore{})
	out := captureOutput(t)
	stubInputs(t, []string{"alice", "alice"}, []string{"", "secret"})

	require.NoError(t, a.Login(context.Background()))

	assert.True(t, containsLine(out(), "required"))
	assert.True(t, a.isLoggedIn())
}

func TestLogin_Cancel(t *testing.T) {
	b := newBackend(t)
	a := newTestApp(t, b, &memStore{})
	out := captureOutput(t)
	stubInputs(t, []string{""}, nil)

	require.NoError(t, a.Login(context.Background()))

	assert.False(t, a.isLoggedIn())
	assert.False(t, a.gate.Visible())
	assert.True(t, containsLine(out(), "Cancelled."))
}

func TestLogin_InputErrorClosesDialog(t *testing.T) {
	b := newBackend(t)
	a := newTestApp(t, b, &memStore{})
	captureOutput(t)
	stubInputs(t, nil, nil)

	err := a.Login(context.Background())
	require.ErrorIs(t, err, io.EOF)
	assert.False(t, a.gate.Visible())
}

func TestLogin_SwitchToRegister(t *testing.T) {
	b := newBackend(t)
	a := newTestApp(t, b, &memStore{})
	captureOutput(t)
	stubInputs(t, []string{"switch", "Bob", "bob"}, []string{"pw"})

	require.NoError(t, a.Login(context.Background()))

	assert.Equal(t, authgate.ModeRegister, a.gate.Mode())
	assert.True(t, a.isLoggedIn())
	assert.Equal(t, "Bob", a.guard.Snapshot().Username)
}

func TestRegister_TakenLogin(t *testing.T) {
	b := newBackend(t)
	a := newTestApp(t, b, &memStore{})
	out := captureOutput(t)
	stubInputs(t, []string{"Alice Two", "alice", ""}, []string{"x"})

	require.NoError(t, a.Register(context.Background()))

	assert.True(t, containsLine(out(), "login already taken"))
	assert.False(t, a.isLoggedIn())
}

func TestLogout(t *testing.T) {
	b := newBackend(t)
	b.carts["alice"] = map[string]int{"0001": 1}
	store := &memStore{token: "tok-alice"}
	a := newTestApp(t, b, store)
	out := captureOutput(t)
	ctx := context.Background()
	require.NoError(t, a.Reload(ctx))
	require.Equal(t, 1, a.cache.Quantity("0001"))

	require.NoError(t, a.Logout(ctx))

	assert.False(t, a.isLoggedIn())
	assert.Empty(t, store.Token())
	assert.Zero(t, a.cache.Quantity("0001"), "anonymous catalog has no quantities")
	assert.True(t, containsLine(out(), "Signed out."))
}

func TestWhoami(t *testing.T) {
	b := newBackend(t)
	a := newTestApp(t, b, &memStore{token: "tok-alice"})
	out := captureOutput(t)
	ctx := context.Background()
	require.NoError(t, a.Reload(ctx))

	require.NoError(t, a.Whoami(ctx))
	assert.True(t, containsLine(out(), "Alice"))
}
