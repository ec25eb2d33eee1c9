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

var tokenColumns = []string{
	"id", "user_id", "token_hash", "ip_address", "user_agent", "expires_at", "created_at", "revoked",
}

func TestSessionStore(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresSessionRepository(mock)

	rt := &domain.RefreshToken{
		ID:        "rt-1",
		UserID:    "user-123",
		TokenHash: "hash-1",
		IPAddress: "203.0.113.7",
		UserAgent: "test-agent",
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}

	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs(rt.ID, rt.UserID, rt.TokenHash, rt.IPAddress, rt.UserAgent, rt.ExpiresAt, rt.CreatedAt, rt.Revoked).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, r.Store(context.Background(), rt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByTokenHash(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresSessionRepository(mock)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery("SELECT id, user_id, token_hash").
			WithArgs("hash-1").
			WillReturnRows(pgxmock.NewRows(tokenColumns).
				AddRow("rt-1", "user-123", "hash-1", "203.0.113.7", "agent", now.Add(time.Hour), now, false))

		rt, err := r.GetByTokenHash(ctx, "hash-1")
		require.NoError(t, err)
		require.NotNil(t, rt)
		assert.Equal(t, "user-123", rt.UserID)
		assert.False(t, rt.Revoked)
	})

	t.Run("not found returns nil without error", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id, token_hash").
			WithArgs("missing-hash").
			WillReturnRows(pgxmock.NewRows(tokenColumns))

		rt, err := r.GetByTokenHash(ctx, "missing-hash")
		require.NoError(t, err)
		assert.Nil(t, rt)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevoke(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresSessionRepository(mock)
	ctx := context.Background()

	t.Run("first revocation wins", func(t *testing.T) {
		mock.ExpectExec("UPDATE refresh_tokens").
			WithArgs("hash-1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		revoked, err := r.Revoke(ctx, "hash-1")
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("already revoked reports false", func(t *testing.T) {
		mock.ExpectExec("UPDATE refresh_tokens").
			WithArgs("hash-1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		revoked, err := r.Revoke(ctx, "hash-1")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("storage error", func(t *testing.T) {
		mock.ExpectExec("UPDATE refresh_tokens").
			WithArgs("hash-1").
			WillReturnError(errors.New("connection reset"))

		_, err := r.Revoke(ctx, "hash-1")
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeAllByUserID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresSessionRepository(mock)

	mock.ExpectExec("UPDATE refresh_tokens").
		WithArgs("user-123").
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	require.NoError(t, r.RevokeAllByUserID(context.Background(), "user-123"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteExpired(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresSessionRepository(mock)

	mock.ExpectExec("DELETE FROM refresh_tokens").
		WillReturnResult(pgxmock.NewResult("DELETE", 7))

	deleted, err := r.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
