package httpapi

import (
	"net/http"
	"sync"

	"github.com/fzon/storefront/internal/shared"
	"golang.org/x/time/rate"
)

// maxLimiters bounds the limiter map. It is reset once exceeded.
const maxLimiters = 10000

// RateLimiter keeps one token bucket per user.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	l, ok := rl.limiters[key]
	if !ok {
		if len(rl.limiters) >= maxLimiters {
			rl.limiters = make(map[string]*rate.Limiter)
		}
		l = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = l
	}
	rl.mu.Unlock()

	return l.Allow()
}

// Handler answers 429 once the caller's bucket is empty. It runs after the
// auth middleware and keys by user, falling back to the remote address.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if id, ok := IdentityFrom(r.Context()); ok {
			key = id.UserID
		}

		if !rl.Allow(key) {
			writeJSON(w, http.StatusTooManyRequests, shared.ErrorResponse{Error: "too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
