// Package ratelimit implements the fixed-window request limiter guarding
// the authentication endpoints. Counters are bucketed per client key and
// reset entirely at the window boundary.
package ratelimit

import (
	"context"
	"math"
	"time"
)

// Defaults applied when configuration is missing or non-positive
const (
	DefaultWindow      = 15 * time.Minute
	DefaultMaxAttempts = 5
)

// Config holds the window duration and the attempt ceiling per window.
type Config struct {
	Window      time.Duration
	MaxAttempts int
}

// withDefaults replaces missing or non-positive values with the defaults.
func (c Config) withDefaults() Config {
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	return c
}

// Decision is the outcome of an admission check. RetryAfter is the number
// of seconds until the window resets and is populated only on deny; it is
// surfaced to clients in the Retry-After header.
type Decision struct {
	Allowed    bool
	RetryAfter int
}

// Store tracks attempt counts per client key. Implementations must make the
// read-modify-write on a key's record atomic.
type Store interface {
	Admit(ctx context.Context, key string, now time.Time) (Decision, error)
}

// Limiter binds a store to a clock. The clock is injectable so window
// expiry is testable without sleeping.
type Limiter struct {
	store Store
	now   func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the limiter's time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a Limiter over the given store.
func New(store Store, opts ...Option) *Limiter {
	l := &Limiter{store: store, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Admit records an attempt for the client key and decides whether the
// request may proceed.
func (l *Limiter) Admit(ctx context.Context, key string) (Decision, error) {
	return l.store.Admit(ctx, key, l.now())
}

// retryAfterSeconds converts the time left in a window to whole seconds,
// rounding up so clients never retry early.
func retryAfterSeconds(remaining time.Duration) int {
	return int(math.Ceil(remaining.Seconds()))
}
