package accounts

import (
	"context"

	"github.com/shopspring/decimal"
)

type Repository interface {
	// Balance is zero for a user without an account row.
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)
	Credit(ctx context.Context, userID string, amount decimal.Decimal) error
	// Debit gives common.ErrInsufficientBalance and changes nothing when the
	// balance is below amount.
	Debit(ctx context.Context, userID string, amount decimal.Decimal) error
}
