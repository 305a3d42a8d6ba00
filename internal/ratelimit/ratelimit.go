// Package ratelimit implements fixed-window request limiting per
// (client, route class). Counters live in a shared Redis store when one is
// configured, with a transparent in-process fallback: callers observe the
// same ceilings, windows and response shape regardless of backend, and a
// Redis outage degrades to best-effort single-instance limiting instead of
// refusing requests.
package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// Class identifies a group of routes sharing a ceiling.
type Class string

const (
	ClassGeneral Class = "general" // 100 requests / minute
	ClassAuth    Class = "auth"    // 5 requests / 5 minutes
	ClassReviews Class = "reviews" // 10 requests / hour
	ClassEmail   Class = "email"   // 3 requests / 10 minutes
)

type classConfig struct {
	Max    int
	Window time.Duration
}

var classes = map[Class]classConfig{
	ClassGeneral: {Max: 100, Window: time.Minute},
	ClassAuth:    {Max: 5, Window: 5 * time.Minute},
	ClassReviews: {Max: 10, Window: time.Hour},
	ClassEmail:   {Max: 3, Window: 10 * time.Minute},
}

// Result is the outcome of one limiter decision.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns the seconds until the window resets, rounded up and at
// least 1 for a denied request. Rounding up keeps a client that waits exactly
// this long from landing inside the same window.
func (r Result) RetryAfter() int {
	millis := time.Until(r.ResetAt).Milliseconds()
	secs := int((millis + 999) / 1000)
	if secs < 1 {
		return 1
	}
	return secs
}

// CounterStore applies one request against the window behind key.
// Implementations must be atomic per key: when the post-increment count would
// exceed max, the stored count is left unchanged and allowed is false.
type CounterStore interface {
	Hit(ctx context.Context, key string, max int, window time.Duration) (count int, resetAt time.Time, allowed bool, err error)
}

// Limiter decides whether a request may proceed. The in-process store is
// always present; a distributed store is preferred when configured.
type Limiter struct {
	primary  CounterStore // nil when no Redis is configured
	fallback *MemoryStore
}

func New(primary CounterStore) *Limiter {
	return &Limiter{primary: primary, fallback: NewMemoryStore()}
}

// Allow records one request from clientID against the class window. Store
// failures never surface: the call is transparently retried on the in-process
// fallback.
func (l *Limiter) Allow(ctx context.Context, clientID string, class Class) Result {
	cfg, ok := classes[class]
	if !ok {
		cfg = classes[ClassGeneral]
	}
	key := "ratelimit:" + string(class) + ":" + clientID

	if l.primary != nil {
		count, resetAt, allowed, err := l.primary.Hit(ctx, key, cfg.Max, cfg.Window)
		if err == nil {
			return buildResult(cfg, count, resetAt, allowed)
		}
		slog.Warn("rate limit store unavailable, using in-process fallback",
			"class", class, "err", err)
	}

	count, resetAt, allowed, _ := l.fallback.Hit(ctx, key, cfg.Max, cfg.Window)
	return buildResult(cfg, count, resetAt, allowed)
}

func buildResult(cfg classConfig, count int, resetAt time.Time, allowed bool) Result {
	remaining := cfg.Max - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   allowed,
		Limit:     cfg.Max,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}
