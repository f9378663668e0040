package carts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fzon/storefront/internal/common"
	"github.com/fzon/storefront/internal/dbx"
	"github.com/fzon/storefront/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) LockOwner(ctx context.Context, userID string) error {
	var id string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Quantity returns 0 for an article that is not in the cart.
func (r *PostgresRepository) Quantity(ctx context.Context, userID, article string) (int, error) {
	query :=
		`SELECT quantity FROM cart_items
		 WHERE user_id = $1 AND article = $2
		 `

	var q int
	err := r.db.QueryRowContext(ctx, query, userID, article).Scan(&q)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return q, nil
}

func (r *PostgresRepository) Set(ctx context.Context, userID, article string, quantity int) error {
	var err error
	if quantity <= 0 {
		_, err = r.db.ExecContext(ctx,
			`DELETE FROM cart_items WHERE user_id = $1 AND article = $2`, userID, article)
	} else {
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO cart_items (user_id, article, quantity)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (user_id, article) DO UPDATE SET quantity = EXCLUDED.quantity`,
			userID, article, quantity)
	}
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Add(ctx context.Context, userID, article string, n, limit int) error {
	query :=
		`INSERT INTO cart_items (user_id, article, quantity)
		 VALUES ($1, $2, LEAST($3, $4))
		 ON CONFLICT (user_id, article) DO UPDATE
		 SET quantity = LEAST(cart_items.quantity + EXCLUDED.quantity, $4)
		 `

	if _, err := r.db.ExecContext(ctx, query, userID, article, n, limit); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Total(ctx context.Context, userID string) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM cart_items WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return total, nil
}

// Items returns the cart with current product names and prices.
func (r *PostgresRepository) Items(ctx context.Context, userID string) ([]models.CartItem, error) {
	query :=
		`SELECT c.article, p.name, c.quantity, p.price
		 FROM cart_items c
		 JOIN products p ON p.article = c.article
		 WHERE c.user_id = $1
		 ORDER BY c.article
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
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

func (r *PostgresRepository) Clear(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
