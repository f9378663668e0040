package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fzon/storefront/internal/common"
	"github.com/fzon/storefront/internal/dbx"
	"github.com/fzon/storefront/internal/server/config"
	"github.com/fzon/storefront/internal/server/models"
	"github.com/fzon/storefront/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
)

// QuantityChange holds the authoritative counts after a cart change.
type QuantityChange struct {
	TotalCount   int
	ProductCount int
}

type OrderData struct {
	CartCount int
	Sum       decimal.Decimal
	Items     []models.CartItem
}

type CartService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	maxQuantity int
}

func NewCartService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *CartService {
	return &CartService{db: db, repomanager: m, maxQuantity: cfg.MaxQuantity}
}

// ChangeQuantity applies delta (+1 or -1) to one article of the user's cart.
// The new quantity is clamped to [0, MaxQuantity]. Changes of one user are
// serialized by locking the user row.
func (s *CartService) ChangeQuantity(ctx context.Context, userID, article string, delta int) (*QuantityChange, error) {
	if delta != 1 && delta != -1 {
		return nil, common.ErrInvalidDelta
	}

	return dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*QuantityChange, error) {
		if _, err := s.repomanager.Products(tx).Get(ctx, article); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, common.ErrUnknownArticle
			}
			return nil, err
		}

		carts := s.repomanager.Carts(tx)
		if err := carts.LockOwner(ctx, userID); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, common.ErrUnauthorized
			}
			return nil, err
		}

		old, err := carts.Quantity(ctx, userID, article)
		if err != nil {
			return nil, err
		}

		next := min(max(old+delta, 0), s.maxQuantity)
		if next != old {
			if err := carts.Set(ctx, userID, article, next); err != nil {
				return nil, err
			}
		}

		total, err := carts.Total(ctx, userID)
		if err != nil {
			return nil, err
		}

		return &QuantityChange{TotalCount: total, ProductCount: next}, nil
	})
}

// OrderData summarizes the cart for the checkout screen.
func (s *CartService) OrderData(ctx context.Context, userID string) (*OrderData, error) {
	items, err := s.repomanager.Carts(s.db).Items(ctx, userID)
	if err != nil {
		return nil, err
	}

	d := &OrderData{Sum: decimal.Zero, Items: items}
	for _, it := range items {
		d.CartCount += it.Quantity
		d.Sum = d.Sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return d, nil
}
