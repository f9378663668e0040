package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fzon/storefront/internal/common"
	"github.com/fzon/storefront/internal/dbx"
	"github.com/fzon/storefront/internal/server/models"
	"github.com/shopspring/decimal"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, o *models.Order) (*models.Order, error) {
	query :=
		`INSERT INTO orders (user_id, idempotency_key, status, sum)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, idempotency_key) DO NOTHING
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, o.UserID, o.IdempotencyKey, string(o.Status), o.Sum).
		Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrOrderAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return o, nil
}

func (r *PostgresRepository) AddItems(ctx context.Context, orderID string, items []models.CartItem) error {
	query :=
		`INSERT INTO order_items (order_id, article, name, quantity, price)
		 VALUES ($1, $2, $3, $4, $5)
		 `

	for _, it := range items {
		if _, err := r.db.ExecContext(ctx, query, orderID, it.Article, it.Name, it.Quantity, it.Price); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) Items(ctx context.Context, orderID string) ([]models.CartItem, error) {
	query :=
		`SELECT article, name, quantity, price FROM order_items
		 WHERE order_id = $1
		 ORDER BY article
		 `

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.CartItem
	for rows.Next() {
		var it models.CartItem
		if err := rows.Scan(&it.Article, &it.Name, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]models.Order, error) {
	query :=
		`SELECT o.id, o.status, o.sum, o.created_at, i.article, i.name, i.quantity, i.price
		 FROM orders o
		 LEFT JOIN order_items i ON i.order_id = o.id
		 WHERE o.user_id = $1
		 ORDER BY o.created_at DESC, o.id, i.article
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Order
	for rows.Next() {
		var (
			o       models.Order
			status  string
			article sql.NullString
			name    sql.NullString
			qty     sql.NullInt64
			price   decimal.NullDecimal
		)
		if err := rows.Scan(&o.ID, &status, &o.Sum, &o.CreatedAt, &article, &name, &qty, &price); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}

		if n := len(out); n == 0 || out[n-1].ID != o.ID {
			o.UserID = userID
			o.Status = models.OrderStatus(status)
			out = append(out, o)
		}
		if article.Valid {
			last := &out[len(out)-1]
			last.Items = append(last.Items, models.CartItem{
				Article:  article.String,
				Name:     name.String,
				Quantity: int(qty.Int64),
				Price:    price.Decimal,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) SetStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, orderID, string(status))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}
