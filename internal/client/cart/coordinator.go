// Package cart turns quantity intents from the product grid into cart
// mutations and reconciles the session badge and the quantity cache from the
// server's authoritative reply.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fzon/storefront/internal/client/client"
	"github.com/fzon/storefront/internal/client/models"
	"github.com/fzon/storefront/internal/common"
	"github.com/fzon/storefront/internal/logging"
)

// ErrTimeout wraps a mutation that did not complete in time. The cart may or
// may not have changed on the server; a reload shows which.
var ErrTimeout = errors.New("cart request timed out, try again")

type Outcome int

const (
	// OutcomeApplied means the reply was written to the badge or the cache.
	OutcomeApplied Outcome = iota
	// OutcomeAuthRequired means the session was not authenticated; the auth
	// dialog was opened and nothing was sent.
	OutcomeAuthRequired
	// OutcomeRejected means the change would take the quantity below zero.
	OutcomeRejected
	// OutcomeStale means a newer reply had already been applied, or the
	// session changed while the request was in flight.
	OutcomeStale
	// OutcomeInvalidated means the server refused the token.
	OutcomeInvalidated
	// OutcomeFailed is any other failure; local state is unchanged.
	OutcomeFailed
)

var outcomeNames = map[Outcome]string{
	OutcomeApplied:      "applied",
	OutcomeAuthRequired: "auth_required",
	OutcomeRejected:     "rejected",
	OutcomeStale:        "stale",
	OutcomeInvalidated:  "invalidated",
	OutcomeFailed:       "failed",
}

func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

type Ordering string

const (
	// OrderSequence tags each request and drops replies older than the last
	// one applied.
	OrderSequence Ordering = "sequence"
	// OrderSerialize sends at most one request per article at a time.
	OrderSerialize Ordering = "serialize"
)

// ParseOrdering accepts the config spelling of an ordering strategy. The empty
// string selects OrderSequence.
func ParseOrdering(s string) (Ordering, error) {
	switch Ordering(s) {
	case "", OrderSequence:
		return OrderSequence, nil
	case OrderSerialize:
		return OrderSerialize, nil
	}
	return "", fmt.Errorf("unknown ordering %q", s)
}

type Config struct {
	Timeout  time.Duration
	Ordering Ordering
	// OptimisticBadge nudges the badge by the delta before the reply arrives.
	// The reply always overwrites it.
	OptimisticBadge bool
}

// Mutator is the part of client.Client the coordinator needs.
type Mutator interface {
	ChangeQuantity(ctx context.Context, token, article string, delta int) (*models.QuantityChange, error)
}

// Session is implemented by *session.Guard.
type Session interface {
	Credentials() (token string, epoch uint64, ok bool)
	Epoch() uint64
	AdjustAggregateCount(delta int)
	SetAggregateCountAt(epoch uint64, value int) bool
	InvalidateAt(ctx context.Context, epoch uint64) bool
}

// Cache is implemented by *catalog.Cache.
type Cache interface {
	Quantity(article string) int
	Set(article string, quantity int)
}

// Gate is implemented by *authgate.Gate.
type Gate interface {
	Show()
}

type articleState struct {
	issued    uint64
	applied   uint64
	published uint64
	quantity  int
	epoch     uint64
	pending   int
	lock      chan struct{}
}

// base is the quantity the next change for article starts from. A reply that
// was accepted but not yet written to the cache wins over the cache.
func (st *articleState) base(c Cache, article string) int {
	if st.applied > st.published {
		return st.quantity
	}
	return c.Quantity(article)
}

// Coordinator is safe for concurrent use. Replies are ordered under mu; the
// winning values are written to the session and the cache afterwards, under
// pub only, so listeners may call Pending.
type Coordinator struct {
	api     Mutator
	session Session
	cache   Cache
	gate    Gate
	logger  logging.Logger
	cfg     Config

	// pub is taken before mu, never while holding it.
	pub sync.Mutex

	mu             sync.Mutex
	articles       map[string]*articleState
	totalIssued    uint64
	totalApplied   uint64
	totalPublished uint64
	total          int
	totalEpoch     uint64
}

func NewCoordinator(api Mutator, s Session, c Cache, g Gate, logger logging.Logger, cfg Config) *Coordinator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Ordering == "" {
		cfg.Ordering = OrderSequence
	}
	return &Coordinator{
		api:      api,
		session:  s,
		cache:    c,
		gate:     g,
		logger:   logger.With("module", "cart"),
		cfg:      cfg,
		articles: make(map[string]*articleState),
	}
}

func (c *Coordinator) state(article string) *articleState {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.articles[article]
	if !ok {
		st = &articleState{lock: make(chan struct{}, 1)}
		c.articles[article] = st
	}
	return st
}

// RequestQuantityChange sends a +1 or -1 change for article and reconciles the
// result. The returned error is set for OutcomeFailed and OutcomeInvalidated,
// and for a delta that is not ±1.
func (c *Coordinator) RequestQuantityChange(ctx context.Context, article string, delta int) (Outcome, error) {
	if delta != 1 && delta != -1 {
		return OutcomeRejected, fmt.Errorf("%w: %d", common.ErrInvalidDelta, delta)
	}

	token, epoch, ok := c.session.Credentials()
	if !ok || token == "" {
		c.gate.Show()
		return OutcomeAuthRequired, nil
	}

	st := c.state(article)
	if c.cfg.Ordering == OrderSerialize {
		select {
		case st.lock <- struct{}{}:
			defer func() { <-st.lock }()
		case <-ctx.Done():
			return OutcomeFailed, ctx.Err()
		}
	}

	c.mu.Lock()
	if st.base(c.cache, article)+st.pending+delta < 0 {
		c.mu.Unlock()
		return OutcomeRejected, nil
	}
	st.pending += delta
	st.issued++
	seq := st.issued
	c.totalIssued++
	totalSeq := c.totalIssued
	appliedBefore := c.totalApplied
	c.mu.Unlock()

	if c.cfg.OptimisticBadge {
		c.session.AdjustAggregateCount(delta)
	}

	c.logger.Debug(ctx, "change quantity", "article", article, "delta", delta, "seq", seq)

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	res, err := c.api.ChangeQuantity(callCtx, token, article, delta)
	timedOut := errors.Is(callCtx.Err(), context.DeadlineExceeded)
	cancel()

	c.mu.Lock()
	st.pending -= delta

	if err != nil {
		revert := c.cfg.OptimisticBadge && c.totalApplied == appliedBefore
		c.mu.Unlock()
		if revert {
			c.session.AdjustAggregateCount(-delta)
		}

		if errors.Is(err, client.ErrUnauthorized) {
			c.logger.Info(ctx, "session rejected by cart service", "article", article)
			c.session.InvalidateAt(ctx, epoch)
			return OutcomeInvalidated, err
		}
		if timedOut {
			err = fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		c.logger.Warn(ctx, "change quantity failed", "article", article, "delta", delta, "err", err)
		return OutcomeFailed, err
	}

	if c.session.Epoch() != epoch {
		c.mu.Unlock()
		c.logger.Debug(ctx, "reply dropped after session change", "article", article, "seq", seq)
		return OutcomeStale, nil
	}

	applied := false
	if seq > st.applied {
		st.applied = seq
		st.quantity = res.ProductCount
		st.epoch = epoch
		applied = true
	}
	if totalSeq > c.totalApplied {
		c.totalApplied = totalSeq
		c.total = res.TotalCount
		c.totalEpoch = epoch
		applied = true
	}
	c.mu.Unlock()

	if !applied {
		c.logger.Debug(ctx, "stale reply dropped", "article", article, "seq", seq)
		return OutcomeStale, nil
	}
	c.publish(article, st)
	return OutcomeApplied, nil
}

// publish writes the newest accepted values for article and for the badge.
// Publishers may run in any order: each one writes whatever is newest at the
// time, so the last write always carries the latest reply.
func (c *Coordinator) publish(article string, st *articleState) {
	c.pub.Lock()
	defer c.pub.Unlock()

	c.mu.Lock()
	seq, quantity, epoch := st.applied, st.quantity, st.epoch
	writeQuantity := seq > st.published
	totalSeq, total, totalEpoch := c.totalApplied, c.total, c.totalEpoch
	writeTotal := totalSeq > c.totalPublished
	c.mu.Unlock()

	if writeQuantity && c.session.Epoch() == epoch {
		c.cache.Set(article, quantity)
	}
	if writeTotal {
		c.session.SetAggregateCountAt(totalEpoch, total)
	}

	c.mu.Lock()
	st.published = max(st.published, seq)
	c.totalPublished = max(c.totalPublished, totalSeq)
	c.mu.Unlock()
}

// Pending returns the sum of in-flight deltas for article.
func (c *Coordinator) Pending(article string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.articles[article]; ok {
		return st.pending
	}
	return 0
}
