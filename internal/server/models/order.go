package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending OrderStatus = "PENDING"
	OrderPaid    OrderStatus = "PAID"
	OrderFailed  OrderStatus = "FAILED"
)

type Order struct {
	ID             string
	UserID         string
	IdempotencyKey string
	Status         OrderStatus
	Sum            decimal.Decimal
	CreatedAt      time.Time
	Items          []CartItem
}

// OutboxMessage is a placed order waiting for payment settlement.
type OutboxMessage struct {
	ID      string
	OrderID string
	UserID  string
	Sum     decimal.Decimal
}
