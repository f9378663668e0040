package client

import (
	"context"

	"github.com/fzon/storefront/internal/client/models"
	"github.com/shopspring/decimal"
)

// Client is the storefront backend contract used by the terminal client.
// Authenticated calls take the bearer token explicitly; an empty token sends
// no Authorization header.
type Client interface {
	Verify(ctx context.Context, token string) (*models.Profile, error)
	ChangeQuantity(ctx context.Context, token, article string, delta int) (*models.QuantityChange, error)
	Login(ctx context.Context, login, password string) (string, error)
	Register(ctx context.Context, name, login, password string) (string, error)
	CreateOrder(ctx context.Context, token, idempotencyKey string) error

	FetchProducts(ctx context.Context, token string) ([]models.Product, error)
	OrderData(ctx context.Context, token string) (*models.OrderData, error)
	FetchOrders(ctx context.Context, token string) ([]models.Order, error)
	Balance(ctx context.Context, token string) (decimal.Decimal, error)
	TopUp(ctx context.Context, token string, amount decimal.Decimal) error

	// AddProduct lists a new product. A rejected field is a *FieldError.
	AddProduct(ctx context.Context, p models.NewProduct) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}
