package booking

import "errors"

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrRateLimited       = errors.New("rate limited")
)
