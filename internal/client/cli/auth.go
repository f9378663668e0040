package cli

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/fzon/storefront/internal/client/authgate"
	"github.com/fzon/storefront/internal/client/client"
	"github.com/fzon/storefront/internal/client/views"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// switchWord typed into the first field of the dialog toggles between
// signing in and registering.
const switchWord = "switch"

// Login opens the auth dialog in sign-in mode and runs it until it closes.
func (a *App) Login(ctx context.Context) error {
	a.gate.SetMode(authgate.ModeLogin)
	a.gate.Show()
	return a.promptAuth(ctx)
}

// Register opens the auth dialog in registration mode.
func (a *App) Register(ctx context.Context) error {
	a.gate.SetMode(authgate.ModeRegister)
	a.gate.Show()
	return a.promptAuth(ctx)
}

// promptAuth drives the visible dialog. An empty first answer cancels it.
// Validation and server field errors are shown and the dialog asks again;
// any other failure closes it and is returned.
func (a *App) promptAuth(ctx context.Context) error {
	for a.gate.Visible() {
		st := a.gate.State()
		printlnFn(views.AuthDialog(st))

		var form authgate.Form
		first := "Enter login"
		if st.Mode == authgate.ModeRegister {
			first = "Enter name"
		}

		answer, err := getSimpleText(a.reader, first, os.Stdout)
		if err != nil {
			a.gate.Hide()
			return err
		}
		switch strings.TrimSpace(answer) {
		case "":
			a.gate.Hide()
			printlnFn("Cancelled.")
			return nil
		case switchWord:
			a.gate.Toggle()
			continue
		}

		if st.Mode == authgate.ModeRegister {
			form.Name = answer
			if form.Login, err = getSimpleText(a.reader, "Enter login", os.Stdout); err != nil {
				a.gate.Hide()
				return err
			}
		} else {
			form.Login = answer
		}

		pw, err := getPassword(a.reader, os.Stdout)
		if err != nil {
			a.gate.Hide()
			return err
		}
		form.Password = string(pw)
		clear(pw)

		err = a.gate.Submit(ctx, form)
		if err == nil {
			printlnFn("Welcome, " + a.guard.Snapshot().Username + "!")
			a.afterSignIn(ctx)
			return nil
		}

		printlnFn(views.FieldErrors(a.gate.Errors()))
		var fe *client.FieldError
		if errors.Is(err, authgate.ErrValidation) || errors.As(err, &fe) {
			continue
		}
		a.gate.Hide()
		return err
	}
	return nil
}

// afterSignIn reloads the catalog so the grid shows this user's quantities.
func (a *App) afterSignIn(ctx context.Context) {
	if _, err := a.storefront.RefreshCatalog(ctx); err != nil {
		a.logger.Warn(ctx, "catalog refresh after sign in failed", "err", err)
	}
	printlnFn(a.nav.Render())
}

// Logout drops the token from memory and storage and reloads the catalog
// without per-user quantities.
func (a *App) Logout(ctx context.Context) error {
	a.guard.Invalidate(ctx)
	if _, err := a.storefront.RefreshCatalog(ctx); err != nil {
		a.logger.Warn(ctx, "catalog refresh after logout failed", "err", err)
	}
	printlnFn("Signed out.")
	return nil
}

func (a *App) Whoami(ctx context.Context) error {
	printlnFn(views.Status(a.guard.Snapshot(), a.Mode() == ModeOnline))
	printlnFn(a.nav.Render())
	return nil
}
