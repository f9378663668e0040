// Package cli provides the interactive storefront command-line client.
//
// It wires configuration, the persisted token, the API client and the shared
// session, catalog and cart state into a REPL. On start the stored token is
// verified, the catalog is printed and a background watcher re-verifies the
// session periodically.
//
// Cart commands (add, inc, dec) go through the cart coordinator. Without a
// session they open the sign-in dialog instead of sending a request.
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App, StartSessionWatcher, and runREPL for details.
package cli
