package services

import (
	"errors"
	"time"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidAccount     = errors.New("invalid account details")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCheckIn     = errors.New("invalid check-in")
	ErrEmptyMessage       = errors.New("message is empty")
	ErrUnknownGame        = errors.New("unknown game")
)

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time
