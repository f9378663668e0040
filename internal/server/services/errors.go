package services

import "github.com/fzon/storefront/internal/common"

// FieldError is a rejected input that the client shows next to one form
// field. Field is empty for errors that belong to the form as a whole.
type FieldError struct {
	Field   string
	Message string
	Err     error
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *FieldError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return common.ErrValidation
}

func fieldError(field, msg string) *FieldError {
	return &FieldError{Field: field, Message: msg}
}
