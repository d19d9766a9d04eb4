package services

import "errors"

var (
	// ErrLocalDataNotAvailable means an offline fallback found nothing cached.
	ErrLocalDataNotAvailable = errors.New("local data unavailable")
	ErrInvalidCredentials    = errors.New("invalid credentials")
)
