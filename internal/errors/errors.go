package errors

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredentials covers both an unknown identifier and a wrong
	// password so callers cannot enumerate valid accounts.
	ErrInvalidCredentials = errors.New("invalid email/username or password")
	ErrEmailNotVerified   = errors.New("please verify your email address before logging in")
	ErrPendingApproval    = errors.New("account is pending administrator approval")
	ErrAccountInactive    = errors.New("account is inactive, contact support")
	ErrSessionInvalid     = errors.New("session is invalid or expired")
)

// RateLimitedError is returned when the IP or account attempt budget for the
// current window is exhausted.
type RateLimitedError struct {
	RetryAfterMinutes int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many login attempts, try again in %d minute(s)", e.RetryAfterMinutes)
}

// AccountLockedError is returned while an account-level lockout is in effect.
type AccountLockedError struct {
	RetryAfterMinutes int
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account temporarily locked, try again in %d minute(s)", e.RetryAfterMinutes)
}

// RetryMinutes converts an absolute reset time into the whole number of
// minutes a caller should wait, rounding up and never below 1.
func RetryMinutes(resetAt, now time.Time) int {
	remaining := resetAt.Sub(now)
	if remaining <= 0 {
		return 1
	}
	minutes := int((remaining + time.Minute - 1) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
