// Package guard decides whether an account is in a state that permits
// authentication at all. The checks are an explicit ordered list so the
// precedence (locked > unverified > pending approval > inactive) is data,
// not an accident of conditional nesting.
package guard

import (
	"time"

	"github.com/heybearc/quantshift-sub001/internal/auth/domain"
	autherrors "github.com/heybearc/quantshift-sub001/internal/errors"
)

// Check is a named account-state predicate. It returns nil when the account
// passes, or the rejection the caller must surface.
type Check struct {
	Name string
	Fn   func(u *domain.User, now time.Time) error
}

// Checks returns the ordered account-state checks run before any password
// verification. None of them inspect the password.
func Checks() []Check {
	return []Check{
		{Name: "locked", Fn: checkLocked},
		{Name: "unverified", Fn: checkEmailVerified},
		{Name: "pending_approval", Fn: checkApproval},
		{Name: "inactive", Fn: checkActive},
	}
}

// Evaluate runs the checks in order and returns the first rejection, or nil
// when the account may proceed to password verification.
func Evaluate(u *domain.User, now time.Time) error {
	for _, c := range Checks() {
		if err := c.Fn(u, now); err != nil {
			return err
		}
	}
	return nil
}

func checkLocked(u *domain.User, now time.Time) error {
	if u.AccountLockedUntil != nil && u.AccountLockedUntil.After(now) {
		return &autherrors.AccountLockedError{
			RetryAfterMinutes: autherrors.RetryMinutes(*u.AccountLockedUntil, now),
		}
	}
	return nil
}

func checkEmailVerified(u *domain.User, _ time.Time) error {
	if !u.EmailVerified {
		return autherrors.ErrEmailNotVerified
	}
	return nil
}

func checkApproval(u *domain.User, _ time.Time) error {
	if u.RequiresApproval {
		return autherrors.ErrPendingApproval
	}
	return nil
}

func checkActive(u *domain.User, _ time.Time) error {
	if !u.IsActive {
		return autherrors.ErrAccountInactive
	}
	return nil
}
