package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the "type" claim
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenClaims is the fixed claim set of every signed token.
// Subject carries the account email.
type TokenClaims struct {
	Type      string `json:"type"`
	AccountID string `json:"account_id"`
	jwt.RegisteredClaims
}

// TokenPair is returned by login and refresh
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
}

// PendingTwoFactorSetup is a setup that was generated but not yet confirmed
type PendingTwoFactorSetup struct {
	AccountID   string    `json:"account_id"`
	Secret      string    `json:"secret"`
	BackupCodes []string  `json:"backup_codes"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}
