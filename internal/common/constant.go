// Package common contains constants and sentinel errors shared by the
// storefront client and server.
package common

// TokenStorageKey is the key under which the client persists its bearer token.
const TokenStorageKey = "jwt_token"

const (
	// AuthorizationHeader carries "Bearer <token>" on authenticated requests.
	AuthorizationHeader = "Authorization"
	// BearerPrefix precedes the token inside AuthorizationHeader.
	BearerPrefix = "Bearer "
	// IdempotencyKeyHeader makes order creation safe to repeat.
	IdempotencyKeyHeader = "Idempotency-Key"
)

// GeneralErrorField is the field name used for errors that do not belong to
// any particular input field.
const GeneralErrorField = "general"
