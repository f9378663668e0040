package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/fzon/storefront/internal/client/authgate"
	"github.com/fzon/storefront/internal/client/cart"
	"github.com/fzon/storefront/internal/client/client"
	"github.com/fzon/storefront/internal/client/session"
	"github.com/fzon/storefront/internal/client/views"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// maxRepeat caps how many clicks one cart command may fire at once.
const maxRepeat = 10

// Reload restores the persisted token, verifies it and loads the catalog.
// A server that cannot be reached leaves the token in place and switches the
// client to offline mode.
func (a *App) Reload(ctx context.Context) error {
	if err := a.guard.Restore(ctx); err != nil {
		a.logger.Warn(ctx, "restoring token", "err", err)
	}

	if a.guard.Snapshot().HasToken {
		if _, err := a.guard.VerifyWithBackoff(ctx); err != nil {
			a.logger.Info(ctx, "session not verified", "err", err)
			if errors.Is(err, client.ErrUnavailable) {
				a.setMode(ModeOffline)
			}
		}
	}

	if _, err := a.storefront.RefreshCatalog(ctx); err != nil {
		return a.handleErr(ctx, err)
	}
	a.setMode(ModeOnline)
	a.grid.Drain()
	return nil
}

// Catalog fetches the products and prints the whole grid.
func (a *App) Catalog(ctx context.Context) error {
	if _, err := a.storefront.RefreshCatalog(ctx); err != nil {
		a.handleErr(ctx, err)
	}
	a.grid.Drain()
	printlnFn(a.grid.Render())
	return nil
}

// Change fires cmd for the article in args[0], args[1] times in parallel,
// the way repeated clicks on one control would. Each reply is reconciled by
// the coordinator; this only reports the outcomes and the changed cells.
func (a *App) Change(ctx context.Context, cmd cart.Command, args []string) error {
	if len(args) == 0 {
		printlnFn(fmt.Sprintf("Usage: %s <article> [times]", cmd))
		return nil
	}
	article := args[0]
	times := 1
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 || n > maxRepeat {
			printlnFn(fmt.Sprintf("times must be between 1 and %d", maxRepeat))
			return nil
		}
		times = n
	}
	if _, ok := a.grid.Cell(article); !ok {
		printlnFn("Unknown article:", article)
		return nil
	}

	outcomes := make([]cart.Outcome, times)
	errs := make([]error, times)
	var g errgroup.Group
	for i := range times {
		g.Go(func() error {
			outcomes[i], errs[i] = a.coord.Dispatch(ctx, cmd, article)
			return nil
		})
	}
	_ = g.Wait()

	seen := map[string]bool{}
	invalidated := false
	for i, o := range outcomes {
		if o == cart.OutcomeInvalidated {
			invalidated = true
		}
		if msg := views.OutcomeMessage(o, errs[i]); msg != "" && !seen[msg] {
			seen[msg] = true
			printlnFn(msg)
		}
	}
	a.printChanges()

	if invalidated {
		a.gate.Show()
	}
	if a.gate.Visible() {
		return a.promptAuth(ctx)
	}
	return nil
}

// printChanges prints the grid lines touched since the last call, or the whole
// grid after a reload, followed by the navigation bar.
func (a *App) printChanges() {
	articles, reloaded := a.grid.Drain()
	if reloaded {
		printlnFn(a.grid.Render())
	} else {
		for _, art := range articles {
			printlnFn(a.grid.RenderLine(art))
		}
	}
	printlnFn(a.nav.Render())
}

func (a *App) Cart(ctx context.Context) error {
	d, err := a.storefront.OrderData(ctx)
	if err != nil {
		return a.handleErr(ctx, err)
	}
	printlnFn(views.CartSummary(d))
	return nil
}

// Order places an order from the current cart. Settlement happens later on
// the server; the result shows up in the order list.
func (a *App) Order(ctx context.Context) error {
	if err := a.storefront.CreateOrder(ctx); err != nil {
		return a.handleErr(ctx, err)
	}
	printlnFn("Order placed. Settlement is pending, see 'orders' for the result.")
	a.printChanges()
	return nil
}

func (a *App) Orders(ctx context.Context) error {
	orders, err := a.storefront.Orders(ctx)
	if err != nil {
		return a.handleErr(ctx, err)
	}
	printlnFn(views.OrderList(orders))
	return nil
}

func (a *App) Balance(ctx context.Context) error {
	b, err := a.storefront.Balance(ctx)
	if err != nil {
		return a.handleErr(ctx, err)
	}
	printlnFn(views.BalanceView(b))
	return nil
}

func (a *App) TopUp(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printlnFn("Usage: topup <amount>")
		return nil
	}
	amount, err := decimal.NewFromString(args[0])
	if err != nil {
		printlnFn("Invalid amount:", args[0])
		return nil
	}
	if err := a.storefront.TopUp(ctx, amount); err != nil {
		return a.handleErr(ctx, err)
	}
	return a.Balance(ctx)
}

// handleErr reports a failed storefront call. An expired session opens the
// auth dialog, an unreachable server switches to offline mode.
func (a *App) handleErr(ctx context.Context, err error) error {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, session.ErrNoToken):
		printlnFn("Sign in first (type 'login').")
		return err
	case errors.Is(err, client.ErrUnauthorized):
		printlnFn(views.OutcomeMessage(cart.OutcomeInvalidated, err))
		a.gate.SetMode(authgate.ModeLogin)
		a.gate.Show()
		if perr := a.promptAuth(ctx); perr != nil {
			return perr
		}
		return err
	case errors.Is(err, client.ErrUnavailable):
		a.setMode(ModeOffline)
		printlnFn("Server unavailable, working offline.")
		return err
	case errors.As(err, &apiErr):
		printlnFn("Error:", apiErr.Message)
		return err
	}
	a.logger.Error(ctx, "command failed", "err", err)
	printlnFn("Error:", err)
	return err
}
