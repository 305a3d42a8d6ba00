package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrAlreadyUsed  = errors.New("already used")
	ErrSuperseded   = errors.New("superseded")
	ErrRateLimited  = errors.New("rate limited")

	// ErrUpstreamUnavailable marks failures of an external dependency (OAuth
	// provider, Redis). The rate limiter recovers from it transparently; the
	// alumni flow surfaces it as a terminal reason code instead.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
