package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fzon/storefront/internal/common"
	"github.com/fzon/storefront/internal/dbx"
	"github.com/fzon/storefront/internal/server/models"
	"github.com/fzon/storefront/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// newOutboxID is replaced by tests.
var newOutboxID = func() string { return uuid.NewString() }

type OrderService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewOrderService(db *sql.DB, m repomanager.RepositoryManager) *OrderService {
	return &OrderService{db: db, repomanager: m}
}

// CreateOrder moves the user's cart into a new PENDING order and queues it
// for settlement, all in one transaction. It returns created=false without
// error when an order with the same idempotency key already exists. An empty
// key gets a random one, so such requests are never deduplicated.
func (s *OrderService) CreateOrder(ctx context.Context, userID, idempotencyKey string) (bool, error) {
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	created := false
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		carts := s.repomanager.Carts(tx)
		if err := carts.LockOwner(ctx, userID); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrUnauthorized
			}
			return err
		}

		items, err := carts.Items(ctx, userID)
		if err != nil {
			return err
		}

		sum := decimal.Zero
		for _, it := range items {
			sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}

		orders := s.repomanager.Orders(tx)
		// A repeated key must be a no-op even once the cart has been emptied,
		// so the insert comes before the empty check. Returning ErrEmptyCart
		// rolls it back.
		o, err := orders.Create(ctx, &models.Order{
			UserID:         userID,
			IdempotencyKey: idempotencyKey,
			Status:         models.OrderPending,
			Sum:            sum,
		})
		if err != nil {
			if errors.Is(err, common.ErrOrderAlreadyExists) {
				return nil
			}
			return err
		}

		if len(items) == 0 {
			return common.ErrEmptyCart
		}

		if err := orders.AddItems(ctx, o.ID, items); err != nil {
			return err
		}
		if err := carts.Clear(ctx, userID); err != nil {
			return err
		}
		if err := s.repomanager.Outbox(tx).Enqueue(ctx, newOutboxID(), o.ID); err != nil {
			return fmt.Errorf("error queueing order: %w", err)
		}

		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (s *OrderService) Orders(ctx context.Context, userID string) ([]models.Order, error) {
	return s.repomanager.Orders(s.db).List(ctx, userID)
}
