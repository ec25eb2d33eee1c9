package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/heybearc/quantshift-sub001/internal/auth/service TokenGenerator
//go:generate mockgen -destination=../../mocks/mock_rate_limiter.go -package=mocks github.com/heybearc/quantshift-sub001/internal/auth/service RateLimiter

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/heybearc/quantshift-sub001/internal/auth/domain"
	"github.com/heybearc/quantshift-sub001/internal/auth/ratelimit"
)

type TokenGenerator interface {
	IssueAccessToken(userID, email string, role domain.Role) (string, time.Time, error)
	IssueRefreshToken() (token, tokenHash string, expiresAt time.Time, err error)
	VerifyAccessToken(tokenString string) (*JWTCustomClaims, error)
	AccessTokenTTL() time.Duration
	RefreshTokenTTL() time.Duration
}

type RateLimiter interface {
	Check(ctx context.Context, key string, max int, window time.Duration) (ratelimit.Result, error)
	Reset(ctx context.Context, key string) error
}

// TokenService issues the two credential kinds: self-verifying JWT access
// tokens and opaque refresh tokens. Issuance has no side effects; persisting
// refresh tokens is the session repository's job.
type TokenService struct {
	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type JWTCustomClaims struct {
	jwt.RegisteredClaims
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
}

func NewTokenService(accessSecret string, accessMinutes, refreshMinutes int) *TokenService {
	return &TokenService{
		AccessTokenSecret:  accessSecret,
		AccessTokenExpiry:  time.Duration(accessMinutes) * time.Minute,
		RefreshTokenExpiry: time.Duration(refreshMinutes) * time.Minute,
	}
}

func (ts *TokenService) IssueAccessToken(userID, email string, role domain.Role) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ts.AccessTokenExpiry)

	claims := JWTCustomClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(ts.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// IssueRefreshToken returns a 256-bit random opaque token together with the
// SHA-256 hash the session store keys on. The raw value leaves the service
// only inside the cookie; it is never persisted.
func (ts *TokenService) IssueRefreshToken() (string, string, time.Time, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", time.Time{}, fmt.Errorf("generate refresh token: %w", err)
	}

	token := hex.EncodeToString(buf)

	return token, HashToken(token), time.Now().Add(ts.RefreshTokenExpiry), nil
}

// HashToken returns the hex-encoded SHA-256 digest of an opaque token value.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (ts *TokenService) AccessTokenTTL() time.Duration {
	return ts.AccessTokenExpiry
}

func (ts *TokenService) RefreshTokenTTL() time.Duration {
	return ts.RefreshTokenExpiry
}

// VerifyAccessToken parses and validates the given access token string.
func (ts *TokenService) VerifyAccessToken(tokenString string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Ensure the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(ts.AccessTokenSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
