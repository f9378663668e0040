package cli

import (
	"context"
	"fmt"
)

func (a *App) getStatus() string {
	s := ""
	if snap := a.guard.Snapshot(); snap.Username != "" {
		s = snap.Username + " "
	}
	s += string(a.Mode())
	return fmt.Sprintf("(%s)", s)
}

// Root restores the session, prints the catalog, starts the session watcher
// and runs the REPL until the user exits.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to the fzon storefront (type 'help' for commands)")

	_ = a.Reload(ctx)
	printlnFn(a.grid.Render())
	printlnFn(a.nav.Render())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.StartSessionWatcher(ctx, a.config.VerifyInterval)

	runREPL(ctx, a, a.getStatus, &lineScanner{r: a.reader})
}
