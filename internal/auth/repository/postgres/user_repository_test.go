package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heybearc/quantshift-sub001/internal/auth/domain"
	repo "github.com/heybearc/quantshift-sub001/internal/auth/repository/postgres"
)

var userColumns = []string{
	"id", "email", "username", "password_hash", "role", "is_active", "email_verified",
	"requires_approval", "failed_login_attempts", "account_locked_until", "last_login",
	"created_at", "updated_at",
}

func userRow(id, email, username string) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(userColumns).AddRow(
		id, email, username, "hash", string(domain.RoleViewer), true, true,
		false, 0, nil, nil, now, now,
	)
}

func TestFindByIdentifier(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresUserRepository(mock)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email, username").
			WithArgs("alice@example.com").
			WillReturnRows(userRow("user-123", "alice@example.com", "alice"))

		user, err := r.FindByIdentifier(ctx, "alice@example.com")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "user-123", user.ID)
		assert.Equal(t, "alice", user.Username)
		assert.Nil(t, user.AccountLockedUntil)
	})

	t.Run("not found returns nil without error", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email, username").
			WithArgs("ghost").
			WillReturnRows(pgxmock.NewRows(userColumns))

		user, err := r.FindByIdentifier(ctx, "ghost")
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("query error", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email, username").
			WithArgs("alice").
			WillReturnError(errors.New("connection refused"))

		user, err := r.FindByIdentifier(ctx, "alice")
		assert.Error(t, err)
		assert.Nil(t, user)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresUserRepository(mock)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email, username").
			WithArgs("user-123").
			WillReturnRows(userRow("user-123", "alice@example.com", "alice"))

		user, err := r.GetByID(ctx, "user-123")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "alice@example.com", user.Email)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email, username").
			WithArgs("missing").
			WillReturnRows(pgxmock.NewRows(userColumns))

		user, err := r.GetByID(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementFailedAttempts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresUserRepository(mock)
	ctx := context.Background()

	t.Run("returns the new count", func(t *testing.T) {
		mock.ExpectQuery("UPDATE users").
			WithArgs("user-123").
			WillReturnRows(pgxmock.NewRows([]string{"failed_login_attempts"}).AddRow(5))

		count, err := r.IncrementFailedAttempts(ctx, "user-123")
		require.NoError(t, err)
		assert.Equal(t, 5, count)
	})

	t.Run("update error", func(t *testing.T) {
		mock.ExpectQuery("UPDATE users").
			WithArgs("user-123").
			WillReturnError(errors.New("deadlock"))

		_, err := r.IncrementFailedAttempts(ctx, "user-123")
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetLockout(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresUserRepository(mock)
	until := time.Now().Add(30 * time.Minute)

	mock.ExpectExec("UPDATE users").
		WithArgs("user-123", until).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, r.SetLockout(context.Background(), "user-123", until))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordLoginSuccess(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresUserRepository(mock)
	at := time.Now()

	mock.ExpectExec("UPDATE users").
		WithArgs("user-123", at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, r.RecordLoginSuccess(context.Background(), "user-123", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}
