package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/BradenHooton/mybiotracker/internal/auth"
	"github.com/BradenHooton/mybiotracker/internal/models"
	"github.com/BradenHooton/mybiotracker/internal/services"
	pkghttp "github.com/BradenHooton/mybiotracker/pkg/http"
	"github.com/go-chi/chi/v5"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// AdminServiceInterface defines the account administration contract
type AdminServiceInterface interface {
	List(ctx context.Context, limit, offset int) ([]*models.Account, error)
	ToggleActive(ctx context.Context, actorID, targetID string) (*models.Account, error)
	Delete(ctx context.Context, actorID, targetID string) error
	Stats(ctx context.Context) (*services.DashboardStats, error)
}

// AdminHandler handles admin HTTP requests. Routes are mounted behind auth.RequireAdmin.
type AdminHandler struct {
	service AdminServiceInterface
	logger  *slog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(service AdminServiceInterface, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{service: service, logger: logger}
}

// queryInt reads a non-negative integer query parameter, falling back to def
func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// ListAccounts handles GET /admin/users?limit=N&offset=M
func (h *AdminHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultListLimit)
	if limit == 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	offset := queryInt(r, "offset", 0)

	accounts, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp := AccountListResponse{
		Accounts: make([]AccountResponse, 0, len(accounts)),
		Limit:    limit,
		Offset:   offset,
	}
	for _, a := range accounts {
		resp.Accounts = append(resp.Accounts, newAccountResponse(a))
	}
	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// ToggleActive handles POST /admin/users/{id}/toggle-active
func (h *AdminHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetAccountFromContext(r)
	if actor == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	updated, err := h.service.ToggleActive(r.Context(), actor.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, newAccountResponse(updated))
}

// DeleteAccount handles DELETE /admin/users/{id}
func (h *AdminHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetAccountFromContext(r)
	if actor == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	if err := h.service.Delete(r.Context(), actor.ID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Account deleted"})
}

// GetStats handles GET /admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to retrieve account stats")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, stats)
}
