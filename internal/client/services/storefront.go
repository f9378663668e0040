// Package services contains application services for the storefront client.
// They combine the API client with the shared session and catalog state.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fzon/storefront/internal/client/client"
	"github.com/fzon/storefront/internal/client/models"
	"github.com/fzon/storefront/internal/client/session"
	"github.com/fzon/storefront/internal/common"
	"github.com/fzon/storefront/internal/logging"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
)

// StorefrontService defines the non-cart storefront operations for the CLI.
//
// Contract:
//   - RefreshCatalog: fetch all products and replace the catalog cache.
//   - OrderData, Orders, Balance, TopUp: authenticated reads and writes.
//   - CreateOrder: place an order from the current cart and refresh the badge
//     and the catalog afterwards.
//   - AddProduct: list a new product and reload the catalog so it shows up.
//
// Authenticated methods return session.ErrNoToken without a request when the
// session is not authenticated, and invalidate it on 401/403.
type StorefrontService interface {
	RefreshCatalog(ctx context.Context) (int, error)
	OrderData(ctx context.Context) (*models.OrderData, error)
	CreateOrder(ctx context.Context) error
	Orders(ctx context.Context) ([]models.Order, error)
	Balance(ctx context.Context) (decimal.Decimal, error)
	TopUp(ctx context.Context, amount decimal.Decimal) error
	AddProduct(ctx context.Context, p models.NewProduct) error
}

// Session is implemented by *session.Guard.
type Session interface {
	Credentials() (token string, epoch uint64, ok bool)
	InvalidateAt(ctx context.Context, epoch uint64) bool
	Verify(ctx context.Context) (models.Profile, error)
}

// Catalog is implemented by *catalog.Cache.
type Catalog interface {
	Load(products []models.Product)
}

type Option func(*storefrontService)

// WithOrderRetry sets how often CreateOrder retries a transient failure with
// the same idempotency key.
func WithOrderRetry(retries uint64, base time.Duration) Option {
	return func(s *storefrontService) {
		s.orderRetries = retries
		s.orderBackoff = base
	}
}

type storefrontService struct {
	client  client.Client
	session Session
	catalog Catalog
	logger  logging.Logger

	orderRetries uint64
	orderBackoff time.Duration
	newKey       func() string
}

func NewStorefrontService(c client.Client, s Session, cat Catalog, logger logging.Logger, opts ...Option) StorefrontService {
	svc := &storefrontService{
		client:       c,
		session:      s,
		catalog:      cat,
		logger:       logger.With("module", "storefront"),
		orderRetries: 2,
		orderBackoff: 300 * time.Millisecond,
		newKey:       uuid.NewString,
	}
	for _, o := range opts {
		o(svc)
	}
	return svc
}

// authed runs fn with the current token and invalidates the session if the
// server rejects it.
func (s *storefrontService) authed(ctx context.Context, fn func(token string) error) error {
	token, epoch, ok := s.session.Credentials()
	if !ok || token == "" {
		return session.ErrNoToken
	}
	err := fn(token)
	if errors.Is(err, client.ErrUnauthorized) {
		s.logger.Info(ctx, "session rejected", "err", err)
		s.session.InvalidateAt(ctx, epoch)
	}
	return err
}

// RefreshCatalog loads the catalog. Quantities are per user only when the
// session is authenticated; otherwise they are all zero.
func (s *storefrontService) RefreshCatalog(ctx context.Context) (int, error) {
	token, _, ok := s.session.Credentials()
	if !ok {
		token = ""
	}
	products, err := s.client.FetchProducts(ctx, token)
	if err != nil {
		return 0, fmt.Errorf("fetch products: %w", err)
	}
	s.catalog.Load(products)
	return len(products), nil
}

func (s *storefrontService) OrderData(ctx context.Context) (*models.OrderData, error) {
	var out *models.OrderData
	err := s.authed(ctx, func(token string) error {
		var err error
		out, err = s.client.OrderData(ctx, token)
		return err
	})
	return out, err
}

func (s *storefrontService) CreateOrder(ctx context.Context) error {
	key := s.newKey()
	b := retry.WithMaxRetries(s.orderRetries, retry.NewExponential(s.orderBackoff))

	err := s.authed(ctx, func(token string) error {
		return retry.Do(ctx, b, func(ctx context.Context) error {
			err := s.client.CreateOrder(ctx, token, key)
			if errors.Is(err, client.ErrUnavailable) {
				s.logger.Warn(ctx, "create order failed, retrying", "key", key, "err", err)
				return retry.RetryableError(err)
			}
			return err
		})
	})
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "order created", "key", key)

	// The server has emptied the cart.
	if _, err := s.session.Verify(ctx); err != nil {
		s.logger.Warn(ctx, "verify after order failed", "err", err)
	}
	if _, err := s.RefreshCatalog(ctx); err != nil {
		s.logger.Warn(ctx, "catalog refresh after order failed", "err", err)
	}
	return nil
}

func (s *storefrontService) Orders(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	err := s.authed(ctx, func(token string) error {
		var err error
		out, err = s.client.FetchOrders(ctx, token)
		return err
	})
	return out, err
}

func (s *storefrontService) Balance(ctx context.Context) (decimal.Decimal, error) {
	var out decimal.Decimal
	err := s.authed(ctx, func(token string) error {
		var err error
		out, err = s.client.Balance(ctx, token)
		return err
	})
	return out, err
}

func (s *storefrontService) TopUp(ctx context.Context, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("top up %s: %w", amount, common.ErrInvalidAmount)
	}
	return s.authed(ctx, func(token string) error {
		return s.client.TopUp(ctx, token, amount)
	})
}

// AddProduct needs no session. A failed catalog reload after a successful
// listing is logged, not returned.
func (s *storefrontService) AddProduct(ctx context.Context, p models.NewProduct) error {
	if err := s.client.AddProduct(ctx, p); err != nil {
		return err
	}
	if _, err := s.RefreshCatalog(ctx); err != nil {
		s.logger.Warn(ctx, "catalog refresh after new product failed", "err", err)
	}
	return nil
}
