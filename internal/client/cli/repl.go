package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fzon/storefront/internal/client/cart"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	Reload(ctx context.Context) error
	Catalog(ctx context.Context) error
	Change(ctx context.Context, cmd cart.Command, args []string) error
	Cart(ctx context.Context) error
	Order(ctx context.Context) error
	Orders(ctx context.Context) error
	Balance(ctx context.Context) error
	TopUp(ctx context.Context, args []string) error
	AddProduct(ctx context.Context) error
}

type lineSource interface {
	Scan() bool
	Text() string
}

// runREPL reads a line from the scanner, parses the first token as the
// command, and dispatches to methods on 'a'. The loop exits on EOF, when the
// user types "exit" or "quit", or when ctx is done.
//
// The catalog and sign-in commands work without a session. Cart commands
// (add, inc, dec) always reach the coordinator, which opens the sign-in
// dialog when needed.
//
// Any errors returned by command handlers are ignored here; handlers report
// their own errors.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner lineSource) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("fzon %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if c, err := cart.ParseCommand(cmd); err == nil {
			_ = a.Change(ctx, c, args)
			continue
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: (c)atalog, add|inc|dec <article> [times], cart, order, orders, balance, topup <amount>, product, whoami, reload, logout, exit")
			} else {
				printlnFn("Available commands: (c)atalog, add|inc|dec <article>, product, login, register, reload, exit")
			}

		case "c", "catalog":
			_ = a.Catalog(ctx)

		case "cart":
			_ = a.Cart(ctx)

		case "order":
			_ = a.Order(ctx)

		case "orders":
			_ = a.Orders(ctx)

		case "balance":
			_ = a.Balance(ctx)

		case "topup":
			_ = a.TopUp(ctx, args)

		case "product":
			_ = a.AddProduct(ctx)

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.Whoami(ctx)

		case "reload":
			_ = a.Reload(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
