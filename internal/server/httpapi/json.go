package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fzon/storefront/internal/common"
	"github.com/fzon/storefront/internal/server/services"
	"github.com/fzon/storefront/internal/shared"
)

const maxBodyBytes = 1 << 20

var errBadJSON = errors.New("malformed JSON body")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errBadJSON, err)
	}
	return nil
}

// errorStatus maps a service error to its HTTP status.
func errorStatus(err error) int {
	var fe *services.FieldError
	switch {
	case errors.Is(err, errBadJSON):
		return http.StatusBadRequest
	case errors.As(err, &fe):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthorized), errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return http.StatusForbidden
	case errors.Is(err, common.ErrUnknownArticle), errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInvalidDelta),
		errors.Is(err, common.ErrEmptyCart),
		errors.Is(err, common.ErrInvalidAmount),
		errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrInsufficientBalance):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes {error} with the mapped status. Internal errors are
// logged and hidden from the caller.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "err", err)
		msg = http.StatusText(status)
	}
	writeJSON(w, status, shared.ErrorResponse{Error: msg})
}

// writeFieldError writes {field, error}. Auth endpoints reply with 200, the
// others with 400.
func writeFieldError(w http.ResponseWriter, status int, fe *services.FieldError) {
	writeJSON(w, status, shared.FieldErrorResponse{Field: fe.Field, Error: fe.Message})
}
