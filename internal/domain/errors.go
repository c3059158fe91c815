package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")

	// Broadcast-specific failures.
	ErrNoRecipients      = errors.New("no eligible recipients")
	ErrWriteFailed       = errors.New("fan-out write failed")
	ErrAggregationFailed = errors.New("announcement aggregation failed")
)
