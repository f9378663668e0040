package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog row. Quantity is the requesting user's cart quantity
// and is only filled by per-user queries.
type Product struct {
	Article     string
	Name        string
	Description string
	SellerName  string
	Price       decimal.Decimal
	Rating      float64
	ImageKey    string
	CreatedAt   time.Time

	Quantity int
}

type CartItem struct {
	Article  string
	Name     string
	Quantity int
	Price    decimal.Decimal
}
