package domain

import "time"

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleViewer Role = "VIEWER"
)

type User struct {
	ID                  string
	Email               string
	Username            string
	PasswordHash        string
	Role                Role
	IsActive            bool
	EmailVerified       bool
	RequiresApproval    bool
	FailedLoginAttempts int
	AccountLockedUntil  *time.Time
	LastLogin           *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// RefreshToken is the persisted record of an issued refresh token. Only the
// SHA-256 hash of the opaque token value is stored.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	IPAddress string
	UserAgent string
	ExpiresAt time.Time
	CreatedAt time.Time
	Revoked   bool
}

// AuditEvent is an append-only record of a security-relevant action.
// ActorID is nil when the actor could not be resolved (e.g. an unknown
// identifier or an IP-level rate limit hit).
type AuditEvent struct {
	ID           int64
	ActorID      *string
	Action       string
	ResourceType string
	ResourceID   *string
	IPAddress    string
	Detail       map[string]any
	CreatedAt    time.Time
}
