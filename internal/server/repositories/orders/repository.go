package orders

import (
	"context"

	"github.com/fzon/storefront/internal/server/models"
)

type Repository interface {
	// Create inserts o. A second order with the same user and idempotency key
	// gives common.ErrOrderAlreadyExists.
	Create(ctx context.Context, o *models.Order) (*models.Order, error)
	AddItems(ctx context.Context, orderID string, items []models.CartItem) error
	Items(ctx context.Context, orderID string) ([]models.CartItem, error)
	// List returns the user's orders, newest first, with their items.
	List(ctx context.Context, userID string) ([]models.Order, error)
	SetStatus(ctx context.Context, orderID string, status models.OrderStatus) error
}
