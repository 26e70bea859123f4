package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/mybiotracker/internal/auth"
	"github.com/BradenHooton/mybiotracker/internal/services"
	pkghttp "github.com/BradenHooton/mybiotracker/pkg/http"
)

// MFAServiceInterface defines the two-factor lifecycle operations
type MFAServiceInterface interface {
	BeginSetup(ctx context.Context, accountID string) (*services.TwoFactorSetup, error)
	ConfirmSetup(ctx context.Context, accountID, code string) error
	Disable(ctx context.Context, accountID string) error
	BackupCodes(ctx context.Context, accountID string) ([]string, error)
}

// QRRenderer turns a provisioning URI into an image data URL
type QRRenderer func(uri string) (string, error)

// MFAHandler handles two-factor HTTP requests. Every route requires an authenticated account.
type MFAHandler struct {
	service  MFAServiceInterface
	renderQR QRRenderer
	logger   *slog.Logger
}

// NewMFAHandler creates a new MFAHandler. A nil renderer uses auth.RenderQRCode.
func NewMFAHandler(service MFAServiceInterface, renderQR QRRenderer, logger *slog.Logger) *MFAHandler {
	if renderQR == nil {
		renderQR = auth.RenderQRCode
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MFAHandler{service: service, renderQR: renderQR, logger: logger}
}

// Setup handles POST /auth/setup-2fa
func (h *MFAHandler) Setup(w http.ResponseWriter, r *http.Request) {
	account := auth.GetAccountFromContext(r)
	if account == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	setup, err := h.service.BeginSetup(r.Context(), account.ID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	qr, err := h.renderQR(setup.ProvisioningURI)
	if err != nil {
		h.logger.Error("failed to render QR code", slog.String("account_id", account.ID), slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, SetupTwoFactorResponse{
		Secret:          setup.Secret,
		ProvisioningURI: setup.ProvisioningURI,
		QRCode:          qr,
		BackupCodes:     setup.BackupCodes,
		ExpiresAt:       setup.ExpiresAt,
	})
}

// Verify handles POST /auth/verify-2fa
func (h *MFAHandler) Verify(w http.ResponseWriter, r *http.Request) {
	account := auth.GetAccountFromContext(r)
	if account == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req VerifyTwoFactorRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	if err := h.service.ConfirmSetup(r.Context(), account.ID, req.TOTPCode); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Two-factor authentication enabled"})
}

// Disable handles POST /auth/disable-2fa
func (h *MFAHandler) Disable(w http.ResponseWriter, r *http.Request) {
	account := auth.GetAccountFromContext(r)
	if account == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	if err := h.service.Disable(r.Context(), account.ID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Two-factor authentication disabled"})
}

// BackupCodes handles GET /auth/backup-codes
func (h *MFAHandler) BackupCodes(w http.ResponseWriter, r *http.Request) {
	account := auth.GetAccountFromContext(r)
	if account == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	codes, err := h.service.BackupCodes(r.Context(), account.ID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, BackupCodesResponse{BackupCodes: codes, Remaining: len(codes)})
}
