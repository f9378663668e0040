package common

import "errors"

var (
	// repository-level errors
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// service-level errors
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation error")

	// auth errors
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrInvalidCredentials = errors.New("invalid login/password")
	ErrLoginAlreadyExists = errors.New("login already exists")

	// cart and order errors
	ErrInvalidDelta        = errors.New("delta must be +1 or -1")
	ErrUnknownArticle      = errors.New("unknown article")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrOrderAlreadyExists  = errors.New("order already exists")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
)
