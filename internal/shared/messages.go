// Package shared holds the JSON message shapes exchanged between the
// storefront client and server.
package shared

import "github.com/shopspring/decimal"

type VerifyResponse struct {
	Username  string `json:"username"`
	CartCount int    `json:"cartCount"`
}

type ChangeQuantityRequest struct {
	Article string `json:"article"`
	Delta   int    `json:"delta"`
}

// ChangeQuantityResponse carries the server's authoritative counts after a
// quantity change. Pointers let the client tell a missing field from zero.
type ChangeQuantityResponse struct {
	TotalCount   *int `json:"totalCount"`
	ProductCount *int `json:"productCount"`
}

type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Login    string `json:"login"`
	Password string `json:"password"`
}

// AuthResponse is either {token} or a {field, error} validation failure.
type AuthResponse struct {
	Token string `json:"token,omitempty"`
	Field string `json:"field,omitempty"`
	Error string `json:"error,omitempty"`
}

// FieldErrorResponse names the offending input field. Field is empty for
// errors that are not tied to one field.
type FieldErrorResponse struct {
	Field string `json:"field,omitempty"`
	Error string `json:"error"`
}

type Product struct {
	Name            string          `json:"name"`
	SellerName      string          `json:"sellerName"`
	Price           decimal.Decimal `json:"price"`
	Rating          float64         `json:"rating"`
	ProductQuantity int             `json:"productQuantity"`
	ImageURL        string          `json:"imageUrl,omitempty"`
}

// ProductsResponse maps article to product.
type ProductsResponse struct {
	Products map[string]Product `json:"products"`
}

type AddProductRequest struct {
	Name        string           `json:"name"`
	Price       *decimal.Decimal `json:"price"`
	Description string           `json:"description"`
	SellerName  string           `json:"sellerName"`
	Rating      *float64         `json:"rating"`
	ImageKey    string           `json:"imageKey,omitempty"`
}

type ImageUploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type CartItem struct {
	Article  string          `json:"article"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type OrderDataResponse struct {
	CartCount int             `json:"cartCount"`
	Sum       decimal.Decimal `json:"sum"`
	Items     []CartItem      `json:"items"`
}

type Order struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Sum       decimal.Decimal `json:"sum"`
	CreatedAt string          `json:"createdAt"`
	Items     []CartItem      `json:"items"`
}

type OrdersResponse struct {
	Orders []Order `json:"orders"`
}

type BalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

type TopUpRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
