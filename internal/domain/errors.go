package domain

import "errors"

var (
	// ErrNotFound indicates an unknown catalog identifier: the remote service
	// has no record and no cached copy exists. Surfaced as a client error.
	ErrNotFound = errors.New("catalog object not found")

	// ErrUpstreamUnavailable indicates the remote catalog is unreachable or
	// rate-limited and no usable cached copy exists. Retryable.
	ErrUpstreamUnavailable = errors.New("catalog upstream unavailable")

	// ErrRateLimited is returned by the remote catalog client when the service
	// signals its request-rate ceiling. The cache performs a single capped
	// backoff retry before falling back to cache-or-fail.
	ErrRateLimited = errors.New("catalog rate limited")

	// ErrInvalidParameters indicates non-positive physical parameters after
	// resolution. Surfaced as a client error, never retried.
	ErrInvalidParameters = errors.New("invalid asteroid parameters")
)
