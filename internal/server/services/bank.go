package services

import (
	"context"
	"database/sql"

	"github.com/fzon/storefront/internal/common"
	"github.com/fzon/storefront/internal/dbx"
	"github.com/fzon/storefront/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
)

// BankService keeps one balance per user. It stands in for a payment
// provider.
type BankService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewBankService(db *sql.DB, m repomanager.RepositoryManager) *BankService {
	return &BankService{db: db, repomanager: m}
}

func (s *BankService) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	return s.repomanager.Accounts(s.db).Balance(ctx, userID)
}

func (s *BankService) TopUp(ctx context.Context, userID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return common.ErrInvalidAmount
	}
	return s.repomanager.Accounts(s.db).Credit(ctx, userID, amount)
}

// Charge debits amount on db, which may be a transaction. It gives
// common.ErrInsufficientBalance and changes nothing when funds are short.
func (s *BankService) Charge(ctx context.Context, db dbx.DBTX, userID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return common.ErrInvalidAmount
	}
	return s.repomanager.Accounts(db).Debit(ctx, userID, amount)
}
