// Package client contains the terminal client's view of the storefront
// backend.
//
// The package provides:
//  1. The Client interface: session verification, cart quantity changes,
//     login/registration, order creation and the read-only catalog, cart,
//     order and bank calls the widgets render.
//  2. HTTPClient, a net/http + encoding/json implementation that attaches the
//     bearer token and maps replies to sentinel errors.
//  3. InitDatabase / RunMigrations, which open the local SQLite file holding
//     the persisted session token.
//
// # Error Handling
//
// Transport failures, timeouts and 5xx replies match ErrUnavailable. 401 and
// 403 from any endpoint match ErrUnauthorized. Bodies that cannot be decoded,
// or lack required fields, match ErrMalformedResponse. Login and registration
// validation failures are returned as *FieldError.
package client
