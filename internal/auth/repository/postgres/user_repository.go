package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/heybearc/quantshift-sub001/internal/auth/domain"
)

const userColumns = `id, email, username, password_hash, role, is_active, email_verified,
		requires_approval, failed_login_attempts, account_locked_until, last_login,
		created_at, updated_at`

type PostgresUserRepository struct {
	db DB
}

func NewPostgresUserRepository(db DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// FindByIdentifier resolves a user by email or username, case-insensitively.
func (r *PostgresUserRepository) FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE lower(email) = lower($1) OR lower(username) = lower($1)
		LIMIT 1;
	`

	return r.scanUser(r.db.QueryRow(ctx, query, identifier))
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
		LIMIT 1;
	`

	return r.scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *PostgresUserRepository) scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.Role,
		&user.IsActive, &user.EmailVerified, &user.RequiresApproval,
		&user.FailedLoginAttempts, &user.AccountLockedUntil, &user.LastLogin,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// IncrementFailedAttempts bumps the failure counter in a single statement so
// concurrent wrong-password attempts never lose an update.
func (r *PostgresUserRepository) IncrementFailedAttempts(ctx context.Context, id string) (int, error) {
	query := `
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1, updated_at = now()
		WHERE id = $1
		RETURNING failed_login_attempts;
	`

	var count int
	if err := r.db.QueryRow(ctx, query, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to increment failed attempts: %w", err)
	}

	return count, nil
}

func (r *PostgresUserRepository) SetLockout(ctx context.Context, id string, until time.Time) error {
	query := `
		UPDATE users
		SET account_locked_until = $2, updated_at = now()
		WHERE id = $1;
	`

	if _, err := r.db.Exec(ctx, query, id, until); err != nil {
		return fmt.Errorf("failed to set lockout: %w", err)
	}

	return nil
}

// RecordLoginSuccess resets the failure counter, clears any lockout and stamps
// last_login together, keeping the counter and the lock timestamp in step.
func (r *PostgresUserRepository) RecordLoginSuccess(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE users
		SET failed_login_attempts = 0, account_locked_until = NULL, last_login = $2, updated_at = now()
		WHERE id = $1;
	`

	if _, err := r.db.Exec(ctx, query, id, at); err != nil {
		return fmt.Errorf("failed to record login success: %w", err)
	}

	return nil
}
