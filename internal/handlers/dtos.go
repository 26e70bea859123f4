package handlers

import (
	"time"

	"github.com/BradenHooton/mybiotracker/internal/models"
)

// Request DTOs

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest represents the request body for login. TOTPCode may hold a backup code.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	TOTPCode string `json:"totp_code" validate:"omitempty,max=16"`
}

// RefreshTokenRequest is the body fallback when no bearer token is sent
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest represents the request body for a password change
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// VerifyTwoFactorRequest confirms a pending two-factor setup
type VerifyTwoFactorRequest struct {
	TOTPCode string `json:"totp_code" validate:"required,len=6,numeric"`
}

// Response DTOs

// AccountResponse is the public view of an account
type AccountResponse struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	IsActive     bool       `json:"is_active"`
	IsAdmin      bool       `json:"is_admin"`
	Is2FAEnabled bool       `json:"is_2fa_enabled"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

func newAccountResponse(a *models.Account) AccountResponse {
	return AccountResponse{
		ID:           a.ID,
		Email:        a.Email,
		IsActive:     a.IsActive,
		IsAdmin:      a.IsAdmin,
		Is2FAEnabled: a.Is2FAEnabled,
		CreatedAt:    a.CreatedAt,
		LastLogin:    a.LastLogin,
	}
}

// TokenResponse is returned by login and refresh
type TokenResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int             `json:"expires_in"`
	Account      AccountResponse `json:"account"`
}

// SetupTwoFactorResponse carries everything needed to enroll an authenticator app
type SetupTwoFactorResponse struct {
	Secret          string    `json:"secret"`
	ProvisioningURI string    `json:"provisioning_uri"`
	QRCode          string    `json:"qr_code"` // PNG data URL
	BackupCodes     []string  `json:"backup_codes"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// BackupCodesResponse lists the codes not yet used
type BackupCodesResponse struct {
	BackupCodes []string `json:"backup_codes"`
	Remaining   int      `json:"remaining"`
}

// AccountListResponse is one page of accounts
type AccountListResponse struct {
	Accounts []AccountResponse `json:"accounts"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// MessageResponse is a plain acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}
