package session

import "errors"

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrBusinessRequired  = errors.New("business id is required")
	ErrControllerStopped = errors.New("session controller is stopped")
)
