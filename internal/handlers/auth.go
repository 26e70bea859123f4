package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/mybiotracker/internal/auth"
	"github.com/BradenHooton/mybiotracker/internal/models"
	"github.com/BradenHooton/mybiotracker/internal/services"
	pkghttp "github.com/BradenHooton/mybiotracker/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password, code, ipAddress string) (*services.LoginResult, error)
	Register(ctx context.Context, email, password string) (*models.Account, error)
	Refresh(ctx context.Context, refreshToken string) (*services.LoginResult, error)
	ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service      AuthServiceInterface
	ipConfig     *pkghttp.IPConfig
	logger       *slog.Logger
	accessTTLSec int
}

// NewAuthHandler creates a new AuthHandler. accessTTLSec is reported as expires_in.
func NewAuthHandler(service AuthServiceInterface, ipConfig *pkghttp.IPConfig, logger *slog.Logger, accessTTLSec int) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		service:      service,
		ipConfig:     ipConfig,
		logger:       logger,
		accessTTLSec: accessTTLSec,
	}
}

func (h *AuthHandler) tokenResponse(result *services.LoginResult) TokenResponse {
	return TokenResponse{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		TokenType:    result.Tokens.TokenType,
		ExpiresIn:    h.accessTTLSec,
		Account:      newAccountResponse(result.Account),
	}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	account, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, newAccountResponse(account))
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)
	result, err := h.service.Login(r.Context(), req.Email, req.Password, req.TOTPCode, ipAddress)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, h.tokenResponse(result))
}

// Refresh handles POST /auth/refresh. The refresh token comes from the bearer
// header, or from the JSON body when no header is sent.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token, ok := pkghttp.BearerToken(r)
	if !ok {
		var req RefreshTokenRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		token = req.RefreshToken
	}
	if token == "" {
		pkghttp.WriteUnauthorized(w, "Refresh token required")
		return
	}

	result, err := h.service.Refresh(r.Context(), token)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, h.tokenResponse(result))
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	account := auth.GetAccountFromContext(r)
	if account == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, newAccountResponse(account))
}

// Logout handles POST /auth/logout. Tokens are stateless, so this only acknowledges;
// clients discard their tokens.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Successfully logged out"})
}

// ChangePassword handles POST /auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	account := auth.GetAccountFromContext(r)
	if account == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req ChangePasswordRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	err := h.service.ChangePassword(r.Context(), account.ID, req.OldPassword, req.NewPassword)
	if err != nil {
		// A wrong current password is a bad request here, not a failed login
		if errors.Is(err, models.ErrInvalidCredentials) {
			pkghttp.WriteBadRequest(w, "Incorrect current password")
			return
		}
		writeServiceError(w, h.logger, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Password changed successfully"})
}
