package outbox

import (
	"context"
	"fmt"

	"github.com/fzon/storefront/internal/dbx"
	"github.com/fzon/storefront/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Enqueue(ctx context.Context, id, orderID string) error {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO order_outbox (id, order_id) VALUES ($1, $2)`, id, orderID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Claim locks up to limit of the oldest rows, skipping rows other workers
// hold.
func (r *PostgresRepository) Claim(ctx context.Context, limit int) ([]models.OutboxMessage, error) {
	query :=
		`SELECT ob.id, ob.order_id, o.user_id, o.sum
		 FROM order_outbox ob
		 JOIN orders o ON o.id = ob.order_id
		 ORDER BY ob.created_at
		 LIMIT $1
		 FOR UPDATE OF ob SKIP LOCKED
		 `

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.OutboxMessage
	for rows.Next() {
		var m models.OutboxMessage
		if err := rows.Scan(&m.ID, &m.OrderID, &m.UserID, &m.Sum); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM order_outbox WHERE id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
