// Package apperr defines the sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrInvalidAPIKey  = errors.New("api key missing or invalid")
	ErrRateLimited    = errors.New("rate limited")
	ErrBadModelOutput = errors.New("model response not in expected format")
)
