package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fzon/storefront/internal/common"
	"github.com/fzon/storefront/internal/dbx"
	"github.com/shopspring/decimal"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	var b decimal.Decimal
	err := r.db.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE user_id = $1`, userID).Scan(&b)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("db error: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) Credit(ctx context.Context, userID string, amount decimal.Decimal) error {
	query :=
		`INSERT INTO accounts (user_id, balance)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET balance = accounts.balance + EXCLUDED.balance
		 `

	if _, err := r.db.ExecContext(ctx, query, userID, amount); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Debit(ctx context.Context, userID string, amount decimal.Decimal) error {
	query :=
		`UPDATE accounts SET balance = balance - $2
		 WHERE user_id = $1 AND balance >= $2
		 `

	res, err := r.db.ExecContext(ctx, query, userID, amount)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrInsufficientBalance
	}
	return nil
}
