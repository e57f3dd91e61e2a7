package domain

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrConflict             = errors.New("conflict")
	ErrInvalidInput         = errors.New("invalid input")
	ErrRateLimited          = errors.New("rate limited")
	ErrConfigurationMissing = errors.New("configuration missing")
	ErrProviderFailure      = errors.New("provider failure")
)
