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

type CartItem struct {
	Article  string
	Name     string
	Quantity int
	Price    decimal.Decimal
}

// OrderData summarizes the current cart before an order is placed.
type OrderData struct {
	CartCount int
	Sum       decimal.Decimal
	Items     []CartItem
}

type Order struct {
	ID        string
	Status    OrderStatus
	Sum       decimal.Decimal
	CreatedAt time.Time
	Items     []CartItem
}
