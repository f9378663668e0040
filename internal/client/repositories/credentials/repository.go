// Package credentials persists the client's session credentials in the local
// SQLite database.
package credentials

import "context"

// Repository is a small key/value store. Get returns ("", nil) for an absent key.
type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
