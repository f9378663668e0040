package carts

import (
	"context"

	"github.com/fzon/storefront/internal/server/models"
)

// Repository stores one row per (user, article) with a positive quantity.
type Repository interface {
	// LockOwner serializes cart changes of one user until the transaction
	// ends.
	LockOwner(ctx context.Context, userID string) error
	Quantity(ctx context.Context, userID, article string) (int, error)
	// Set stores quantity, deleting the row when it is zero.
	Set(ctx context.Context, userID, article string, quantity int) error
	// Add increases the quantity by n, capped at limit.
	Add(ctx context.Context, userID, article string, n, limit int) error
	Total(ctx context.Context, userID string) (int, error)
	Items(ctx context.Context, userID string) ([]models.CartItem, error)
	Clear(ctx context.Context, userID string) error
}
