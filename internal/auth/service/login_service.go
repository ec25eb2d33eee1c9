package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/heybearc/quantshift-sub001/config"
	"github.com/heybearc/quantshift-sub001/internal/auth/domain"
	"github.com/heybearc/quantshift-sub001/internal/auth/dto"
	"github.com/heybearc/quantshift-sub001/internal/auth/guard"
	"github.com/heybearc/quantshift-sub001/internal/auth/ratelimit"
	autherrors "github.com/heybearc/quantshift-sub001/internal/errors"
	"github.com/heybearc/quantshift-sub001/pkg/constant"
)

// LoginService composes the rate limiter, account guard, credential check,
// token issuer and session store into the login, refresh and logout protocols.
type LoginService struct {
	users    domain.UserRepository
	sessions domain.SessionRepository
	audit    domain.AuditRecorder
	tokens   TokenGenerator
	limiter  RateLimiter
	cfg      *config.Config
	logger   *zap.Logger
}

func NewLoginService(
	users domain.UserRepository,
	sessions domain.SessionRepository,
	audit domain.AuditRecorder,
	tokens TokenGenerator,
	limiter RateLimiter,
	cfg *config.Config,
	logger *zap.Logger,
) *LoginService {
	return &LoginService{
		users:    users,
		sessions: sessions,
		audit:    audit,
		tokens:   tokens,
		limiter:  limiter,
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *LoginService) rateLimitWindow() time.Duration {
	return time.Duration(s.cfg.LoginWindowMinutes) * time.Minute
}

// Login runs the full login protocol: IP rate limit, identifier resolution,
// account rate limit, account-state checks, password verification with
// lockout bookkeeping, then token issuance and refresh-token persistence.
// Every terminal outcome emits an audit event.
func (s *LoginService) Login(ctx context.Context, input dto.LoginInput) (*dto.LoginOutput, error) {
	now := time.Now().UTC()
	identifier := strings.TrimSpace(input.Identifier)

	ipRes, err := s.limiter.Check(ctx, ratelimit.LoginIPKey(input.IPAddress), s.cfg.LoginMaxAttempts, s.rateLimitWindow())
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}
	if !ipRes.Allowed {
		retry := autherrors.RetryMinutes(ipRes.ResetAt, now)
		s.recordAudit(ctx, &domain.AuditEvent{
			Action:       constant.ActionLoginRateLimited,
			ResourceType: constant.ResourceTypeUser,
			IPAddress:    input.IPAddress,
			Detail:       map[string]any{"scope": "ip", "retry_after_minutes": retry},
			CreatedAt:    now,
		})
		return nil, &autherrors.RateLimitedError{RetryAfterMinutes: retry}
	}

	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}
	if user == nil {
		// Same error shape as a wrong password, so the response does not
		// reveal whether the account exists.
		s.recordAudit(ctx, &domain.AuditEvent{
			Action:       constant.ActionLoginFailed,
			ResourceType: constant.ResourceTypeUser,
			IPAddress:    input.IPAddress,
			Detail:       map[string]any{"reason": "unknown_identifier", "identifier": identifier},
			CreatedAt:    now,
		})
		return nil, autherrors.ErrInvalidCredentials
	}

	emailKey := ratelimit.LoginEmailKey(strings.ToLower(user.Email))
	emailRes, err := s.limiter.Check(ctx, emailKey, s.cfg.LoginMaxAttempts, s.rateLimitWindow())
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}
	if !emailRes.Allowed {
		retry := autherrors.RetryMinutes(emailRes.ResetAt, now)
		s.recordAudit(ctx, &domain.AuditEvent{
			ActorID:      &user.ID,
			Action:       constant.ActionLoginRateLimited,
			ResourceType: constant.ResourceTypeUser,
			ResourceID:   &user.ID,
			IPAddress:    input.IPAddress,
			Detail:       map[string]any{"scope": "account", "retry_after_minutes": retry},
			CreatedAt:    now,
		})
		return nil, &autherrors.RateLimitedError{RetryAfterMinutes: retry}
	}

	for _, check := range guard.Checks() {
		if rejectErr := check.Fn(user, now); rejectErr != nil {
			s.recordAudit(ctx, &domain.AuditEvent{
				ActorID:      &user.ID,
				Action:       constant.ActionLoginFailed,
				ResourceType: constant.ResourceTypeUser,
				ResourceID:   &user.ID,
				IPAddress:    input.IPAddress,
				Detail:       map[string]any{"reason": check.Name},
				CreatedAt:    now,
			})
			return nil, rejectErr
		}
	}

	if !verifyPassword(input.Password, user.PasswordHash) {
		return nil, s.handlePasswordFailure(ctx, user, input.IPAddress, now)
	}

	if err := s.users.RecordLoginSuccess(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to reset login state: %w", err)
	}
	user.LastLogin = &now

	if err := s.limiter.Reset(ctx, ratelimit.LoginIPKey(input.IPAddress)); err != nil {
		s.logger.Warn("failed to reset ip rate limit", zap.String("ip", input.IPAddress), zap.Error(err))
	}
	if err := s.limiter.Reset(ctx, emailKey); err != nil {
		s.logger.Warn("failed to reset account rate limit", zap.String("user_id", user.ID), zap.Error(err))
	}

	tokens, err := s.issueSession(ctx, user, input.IPAddress, input.UserAgent)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, &domain.AuditEvent{
		ActorID:      &user.ID,
		Action:       constant.ActionLoginSuccess,
		ResourceType: constant.ResourceTypeUser,
		ResourceID:   &user.ID,
		IPAddress:    input.IPAddress,
		Detail:       map[string]any{"identifier": identifier},
		CreatedAt:    now,
	})

	return &dto.LoginOutput{
		User:   dto.NewUserOutput(user),
		Tokens: *tokens,
	}, nil
}

// handlePasswordFailure increments the failure counter and, when the new
// count reaches the threshold, sets the lockout and reports it instead of
// the generic credentials error.
func (s *LoginService) handlePasswordFailure(ctx context.Context, user *domain.User, ip string, now time.Time) error {
	attempts, err := s.users.IncrementFailedAttempts(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to increment failed attempts: %w", err)
	}

	if attempts >= s.cfg.LoginFailureThreshold {
		until := now.Add(time.Duration(s.cfg.LockoutMinutes) * time.Minute)
		if err := s.users.SetLockout(ctx, user.ID, until); err != nil {
			return fmt.Errorf("failed to set lockout: %w", err)
		}

		s.logger.Warn("account locked after repeated failures",
			zap.String("user_id", user.ID), zap.Int("failed_attempts", attempts))
		s.recordAudit(ctx, &domain.AuditEvent{
			ActorID:      &user.ID,
			Action:       constant.ActionAccountLocked,
			ResourceType: constant.ResourceTypeUser,
			ResourceID:   &user.ID,
			IPAddress:    ip,
			Detail:       map[string]any{"failed_attempts": attempts, "locked_until": until},
			CreatedAt:    now,
		})

		return &autherrors.AccountLockedError{RetryAfterMinutes: s.cfg.LockoutMinutes}
	}

	s.recordAudit(ctx, &domain.AuditEvent{
		ActorID:      &user.ID,
		Action:       constant.ActionLoginFailed,
		ResourceType: constant.ResourceTypeUser,
		ResourceID:   &user.ID,
		IPAddress:    ip,
		Detail:       map[string]any{"reason": "invalid_password", "failed_attempts": attempts},
		CreatedAt:    now,
	})

	return autherrors.ErrInvalidCredentials
}

// Refresh rotates a refresh token: the presented token is revoked before the
// replacement pair is issued, so each token is redeemable exactly once.
func (s *LoginService) Refresh(ctx context.Context, input dto.RefreshInput) (*dto.TokenPair, error) {
	if input.RefreshToken == "" {
		return nil, autherrors.ErrSessionInvalid
	}

	now := time.Now().UTC()
	tokenHash := HashToken(input.RefreshToken)

	record, err := s.sessions.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		return nil, fmt.Errorf("refresh token lookup failed: %w", err)
	}
	if record == nil || record.Revoked || now.After(record.ExpiresAt) {
		return nil, autherrors.ErrSessionInvalid
	}

	revoked, err := s.sessions.Revoke(ctx, tokenHash)
	if err != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if !revoked {
		// A concurrent redemption won the conditional update.
		return nil, autherrors.ErrSessionInvalid
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}
	if user == nil {
		return nil, autherrors.ErrSessionInvalid
	}

	tokens, err := s.issueSession(ctx, user, input.IPAddress, input.UserAgent)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, &domain.AuditEvent{
		ActorID:      &user.ID,
		Action:       constant.ActionTokenRefresh,
		ResourceType: constant.ResourceTypeSession,
		ResourceID:   &record.ID,
		IPAddress:    input.IPAddress,
		CreatedAt:    now,
	})

	return tokens, nil
}

// Logout revokes the presented refresh token. Unknown or already-revoked
// tokens are not an error, so repeating the call is harmless.
func (s *LoginService) Logout(ctx context.Context, refreshToken, ip string) error {
	if refreshToken == "" {
		return nil
	}

	tokenHash := HashToken(refreshToken)

	record, err := s.sessions.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		return fmt.Errorf("refresh token lookup failed: %w", err)
	}
	if record == nil {
		return nil
	}

	if _, err := s.sessions.Revoke(ctx, tokenHash); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	s.recordAudit(ctx, &domain.AuditEvent{
		ActorID:      &record.UserID,
		Action:       constant.ActionLogout,
		ResourceType: constant.ResourceTypeSession,
		ResourceID:   &record.ID,
		IPAddress:    ip,
		CreatedAt:    time.Now().UTC(),
	})

	return nil
}

// ForceLogout revokes every active session of the given user. Used by the
// admin surface.
func (s *LoginService) ForceLogout(ctx context.Context, actorID, userID, ip string) error {
	if err := s.sessions.RevokeAllByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke user sessions: %w", err)
	}

	s.recordAudit(ctx, &domain.AuditEvent{
		ActorID:      &actorID,
		Action:       constant.ActionForceLogout,
		ResourceType: constant.ResourceTypeUser,
		ResourceID:   &userID,
		IPAddress:    ip,
		CreatedAt:    time.Now().UTC(),
	})

	return nil
}

// issueSession generates a token pair and persists the refresh token before
// anything is returned, so a token the client holds is always discoverable
// server-side.
func (s *LoginService) issueSession(ctx context.Context, user *domain.User, ip, userAgent string) (*dto.TokenPair, error) {
	accessToken, accessExpiresAt, err := s.tokens.IssueAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	refreshToken, tokenHash, refreshExpiresAt, err := s.tokens.IssueRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	record := &domain.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: tokenHash,
		IPAddress: ip,
		UserAgent: userAgent,
		ExpiresAt: refreshExpiresAt,
		CreatedAt: time.Now().UTC(),
		Revoked:   false,
	}
	if err := s.sessions.Store(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &dto.TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

func (s *LoginService) recordAudit(ctx context.Context, event *domain.AuditEvent) {
	if err := s.audit.Record(ctx, event); err != nil {
		s.logger.Error("failed to record audit event",
			zap.String("action", event.Action), zap.Error(err))
	}
}

func verifyPassword(plain, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plain)) == nil
}

// HashPassword produces a bcrypt hash for a plaintext password. The login
// core only verifies hashes; this exists for fixtures and admin resets.
func HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
