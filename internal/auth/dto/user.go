package dto

import (
	"time"

	"github.com/heybearc/quantshift-sub001/internal/auth/domain"
)

// UserOutput is the sanitized projection returned after login. It never
// carries the password hash or the lockout bookkeeping fields.
type UserOutput struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Username  string      `json:"username"`
	Role      domain.Role `json:"role"`
	LastLogin *time.Time  `json:"last_login,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

type LoginOutput struct {
	User   UserOutput
	Tokens TokenPair
}

func NewUserOutput(u *domain.User) UserOutput {
	return UserOutput{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Role:      u.Role,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
	}
}
