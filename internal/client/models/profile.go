// Package models defines client-side domain types returned by the storefront API.
package models

// Profile is the result of a successful session verification.
type Profile struct {
	Username  string
	CartCount int
}

// QuantityChange holds the authoritative counts the server returns after
// applying a cart delta.
type QuantityChange struct {
	TotalCount   int
	ProductCount int
}
