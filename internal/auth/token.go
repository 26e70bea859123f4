package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/mybiotracker/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultAccessTokenExpiry  = 30 * time.Minute
	DefaultRefreshTokenExpiry = 7 * 24 * time.Hour
)

// TokenManager handles JWT token generation and validation.
// It holds no mutable state and is safe for concurrent use.
type TokenManager struct {
	secret             []byte
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	now                func() time.Time
	logger             *slog.Logger
}

// TokenOption customizes a TokenManager
type TokenOption func(*TokenManager)

// WithClock overrides the time source used for issuing and validating tokens
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		tm.now = now
	}
}

// WithTokenLogger sets the logger that records why verification failed
func WithTokenLogger(logger *slog.Logger) TokenOption {
	return func(tm *TokenManager) {
		tm.logger = logger
	}
}

// NewTokenManager creates a new TokenManager. An empty secret is a configuration error.
func NewTokenManager(secret string, accessExpiry, refreshExpiry time.Duration, opts ...TokenOption) (*TokenManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("token signing key is required")
	}
	if accessExpiry <= 0 || refreshExpiry <= 0 {
		return nil, fmt.Errorf("token expiry must be positive")
	}

	tm := &TokenManager{
		secret:             []byte(secret),
		accessTokenExpiry:  accessExpiry,
		refreshTokenExpiry: refreshExpiry,
		now:                time.Now,
		logger:             slog.Default(),
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm, nil
}

// AccessTokenExpiry returns the configured access token lifetime
func (tm *TokenManager) AccessTokenExpiry() time.Duration {
	return tm.accessTokenExpiry
}

// IssueAccess creates a short-lived access token
func (tm *TokenManager) IssueAccess(subject, accountID string) (string, error) {
	return tm.issue(models.TokenTypeAccess, subject, accountID, tm.accessTokenExpiry)
}

// IssueRefresh creates a long-lived refresh token
func (tm *TokenManager) IssueRefresh(subject, accountID string) (string, error) {
	return tm.issue(models.TokenTypeRefresh, subject, accountID, tm.refreshTokenExpiry)
}

// IssuePair creates an access and a refresh token for the same account
func (tm *TokenManager) IssuePair(subject, accountID string) (*models.TokenPair, error) {
	access, err := tm.IssueAccess(subject, accountID)
	if err != nil {
		return nil, err
	}
	refresh, err := tm.IssueRefresh(subject, accountID)
	if err != nil {
		return nil, err
	}
	return &models.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}

func (tm *TokenManager) issue(tokenType, subject, accountID string, ttl time.Duration) (string, error) {
	now := tm.now()

	claims := &models.TokenClaims{
		Type:      tokenType,
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}

	return tokenString, nil
}

// Verify checks signature, expiry and type. Every failure is ErrTokenInvalid;
// the underlying reason is only logged.
func (tm *TokenManager) Verify(tokenString, expectedType string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		tm.logger.Debug("token rejected", slog.String("reason", rejectReason(err)))
		return nil, models.ErrTokenInvalid
	}

	if claims.Type != expectedType {
		tm.logger.Debug("token rejected",
			slog.String("reason", "wrong_type"),
			slog.String("type", claims.Type),
			slog.String("expected", expectedType))
		return nil, models.ErrTokenInvalid
	}

	if claims.AccountID == "" || claims.Subject == "" {
		tm.logger.Debug("token rejected", slog.String("reason", "missing_identity"))
		return nil, models.ErrTokenInvalid
	}

	return claims, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "bad_signature"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return "issued_in_future"
	default:
		return "invalid"
	}
}
