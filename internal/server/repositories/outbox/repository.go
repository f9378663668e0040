package outbox

import (
	"context"

	"github.com/fzon/storefront/internal/server/models"
)

// Repository is the queue of placed orders awaiting settlement. Claim must
// run inside a transaction; claimed rows stay locked until it ends.
type Repository interface {
	Enqueue(ctx context.Context, id, orderID string) error
	Claim(ctx context.Context, limit int) ([]models.OutboxMessage, error)
	Delete(ctx context.Context, id string) error
}
