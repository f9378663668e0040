package services

import (
	"context"
	"database/sql"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/fzon/storefront/internal/common"
	"github.com/fzon/storefront/internal/dbx"
	"github.com/fzon/storefront/internal/logging"
	"github.com/fzon/storefront/internal/server/config"
	"github.com/fzon/storefront/internal/server/metrics"
	"github.com/fzon/storefront/internal/server/models"
	"github.com/fzon/storefront/internal/server/repositories/repomanager"
)

// SettlementWorker pays placed orders from the outbox. A payment succeeds
// when the balance covers the sum and a random draw falls under the
// configured success rate. Failed orders give their items back to the cart.
type SettlementWorker struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	bank        *BankService
	logger      logging.Logger
	metrics     *metrics.Metrics

	interval    time.Duration
	batch       int
	successRate float64
	maxQuantity int

	draw func() float64
}

func NewSettlementWorker(db *sql.DB, m repomanager.RepositoryManager, bank *BankService, cfg *config.Config,
	logger logging.Logger, mx *metrics.Metrics) *SettlementWorker {
	return &SettlementWorker{
		db:          db,
		repomanager: m,
		bank:        bank,
		logger:      logger.With("module", "settlement"),
		metrics:     mx,
		interval:    cfg.SettlementInterval,
		batch:       cfg.SettlementBatch,
		successRate: cfg.SettlementSuccessRate,
		maxQuantity: cfg.MaxQuantity,
		draw:        rand.Float64,
	}
}

// Run settles a batch every interval until ctx is done.
func (w *SettlementWorker) Run(ctx context.Context) error {
	w.logger.Info(ctx, "starting settlement worker", "interval", w.interval.String(), "batch", w.batch)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "stopping settlement worker")
			return nil
		case <-ticker.C:
			n, err := w.SettleBatch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				w.logger.Error(ctx, "settlement batch failed", "err", err)
				continue
			}
			if n > 0 {
				w.logger.Debug(ctx, "settled orders", "count", n)
			}
		}
	}
}

// SettleBatch claims up to batch outbox rows and settles them in one
// transaction. Rows held by another worker are skipped.
func (w *SettlementWorker) SettleBatch(ctx context.Context) (int, error) {
	var statuses []models.OrderStatus

	err := dbx.WithTx(ctx, w.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		statuses = statuses[:0]

		msgs, err := w.repomanager.Outbox(tx).Claim(ctx, w.batch)
		if err != nil {
			return err
		}

		for _, msg := range msgs {
			status, err := w.settle(ctx, tx, msg)
			if err != nil {
				return err
			}
			statuses = append(statuses, status)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, s := range statuses {
		w.metrics.RecordSettlement(string(s))
	}
	return len(statuses), nil
}

func (w *SettlementWorker) settle(ctx context.Context, tx dbx.DBTX, msg models.OutboxMessage) (models.OrderStatus, error) {
	status := models.OrderFailed
	if w.draw() < w.successRate {
		err := w.bank.Charge(ctx, tx, msg.UserID, msg.Sum)
		switch {
		case err == nil:
			status = models.OrderPaid
		case errors.Is(err, common.ErrInsufficientBalance):
		default:
			return "", err
		}
	}

	if err := w.repomanager.Orders(tx).SetStatus(ctx, msg.OrderID, status); err != nil {
		return "", err
	}

	if status == models.OrderFailed {
		if err := w.restoreCart(ctx, tx, msg); err != nil {
			return "", err
		}
	}

	if err := w.repomanager.Outbox(tx).Delete(ctx, msg.ID); err != nil {
		return "", err
	}

	w.logger.Info(ctx, "order settled", "order_id", msg.OrderID, "status", string(status))
	return status, nil
}

func (w *SettlementWorker) restoreCart(ctx context.Context, tx dbx.DBTX, msg models.OutboxMessage) error {
	items, err := w.repomanager.Orders(tx).Items(ctx, msg.OrderID)
	if err != nil {
		return err
	}

	carts := w.repomanager.Carts(tx)
	if err := carts.LockOwner(ctx, msg.UserID); err != nil {
		return err
	}
	for _, it := range items {
		if err := carts.Add(ctx, msg.UserID, it.Article, it.Quantity, w.maxQuantity); err != nil {
			return err
		}
	}
	return nil
}
