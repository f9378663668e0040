package models

import "github.com/shopspring/decimal"

// Product is one catalog row together with the caller's cart quantity.
type Product struct {
	Article    string
	Name       string
	SellerName string
	Price      decimal.Decimal
	Rating     float64
	Quantity   int
	ImageURL   string
}

// NewProduct is a catalog listing submitted by a seller.
type NewProduct struct {
	Name        string
	Price       decimal.Decimal
	Description string
	SellerName  string
	Rating      float64
}
