package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fzon/storefront/internal/common"
	"github.com/fzon/storefront/internal/server/auth"
	"github.com/fzon/storefront/internal/shared"
	"github.com/gorilla/mux"
)

type ctxKey string

const identityKey ctxKey = "identity"

func withIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the caller set by the auth middleware.
func IdentityFrom(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(auth.Identity)
	return id, ok
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get(common.AuthorizationHeader)
	if !strings.HasPrefix(h, common.BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, common.BearerPrefix))
}

// requireAuth rejects a request without a bearer token with 401 and one with
// an invalid or expired token with 403.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, shared.ErrorResponse{Error: "missing token"})
			return
		}

		id, err := auth.ParseToken(token, s.jwtSecret)
		if err != nil {
			s.logger.Debug(r.Context(), "token rejected", "err", err)
			writeJSON(w, http.StatusForbidden, shared.ErrorResponse{Error: "invalid token"})
			return
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
	})
}

// optionalAuth attaches the identity of a valid token and otherwise lets the
// request through anonymously.
func (s *Server) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r); token != "" {
			if id, err := auth.ParseToken(token, s.jwtSecret); err == nil {
				r = r.WithContext(withIdentity(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.written {
		rw.status = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// observe records Prometheus metrics and a log line for every request.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.metrics.IncrementInFlight()
		defer s.metrics.DecrementInFlight()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}

		d := time.Since(start)
		s.metrics.RecordHTTPRequest(r.Method, path, strconv.Itoa(rec.status), d)
		s.logger.Debug(r.Context(), "request", "method", r.Method, "path", path,
			"status", rec.status, "duration", d.String())
	})
}
