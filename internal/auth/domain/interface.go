package domain

//go:generate mockgen -destination=../../mocks/mock_user_repository.go -package=mocks github.com/heybearc/quantshift-sub001/internal/auth/domain UserRepository
//go:generate mockgen -destination=../../mocks/mock_session_repository.go -package=mocks github.com/heybearc/quantshift-sub001/internal/auth/domain SessionRepository
//go:generate mockgen -destination=../../mocks/mock_audit_recorder.go -package=mocks github.com/heybearc/quantshift-sub001/internal/auth/domain AuditRecorder

import (
	"context"
	"time"
)

type UserRepository interface {
	// FindByIdentifier resolves a user by email or username, case-insensitively.
	// Returns (nil, nil) when no user matches.
	FindByIdentifier(ctx context.Context, identifier string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	// IncrementFailedAttempts atomically bumps the failure counter and returns
	// the new count.
	IncrementFailedAttempts(ctx context.Context, id string) (int, error)
	SetLockout(ctx context.Context, id string, until time.Time) error
	// RecordLoginSuccess resets the failure counter, clears any lockout and
	// stamps last_login in a single update.
	RecordLoginSuccess(ctx context.Context, id string, at time.Time) error
}

type SessionRepository interface {
	Store(ctx context.Context, rt *RefreshToken) error
	// GetByTokenHash returns (nil, nil) when no record matches.
	GetByTokenHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	// Revoke marks the token revoked. It reports false when the record was
	// already revoked or absent, which is how a racing double redemption loses.
	Revoke(ctx context.Context, tokenHash string) (bool, error)
	RevokeAllByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}
