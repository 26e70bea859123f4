package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/mybiotracker/internal/handlers"
	"github.com/BradenHooton/mybiotracker/internal/models"
	"github.com/BradenHooton/mybiotracker/internal/services"
	pkghttp "github.com/BradenHooton/mybiotracker/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminAccount() *models.Account {
	a := testAccount()
	a.ID = "0b9c8d7e-6f5a-4b3c-8d2e-1f0a9b8c7d6e"
	a.Email = "admin@example.com"
	a.IsAdmin = true
	return a
}

// adminRouter mounts the handler the way routes does, minus authentication
func adminRouter(h *handlers.AdminHandler, actor *models.Account) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, handlers.WithAccountContext(req, actor))
		})
	})
	r.Get("/admin/users", h.ListAccounts)
	r.Post("/admin/users/{id}/toggle-active", h.ToggleActive)
	r.Delete("/admin/users/{id}", h.DeleteAccount)
	r.Get("/admin/stats", h.GetStats)
	return r
}

func TestAdminHandler_ListAccounts(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{name: "defaults", query: "", wantLimit: 100, wantOffset: 0},
		{name: "explicit", query: "?limit=10&offset=20", wantLimit: 10, wantOffset: 20},
		{name: "limit too large", query: "?limit=10000", wantLimit: 100, wantOffset: 0},
		{name: "garbage", query: "?limit=abc&offset=-3", wantLimit: 100, wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotLimit, gotOffset int
			service := &handlers.MockAdminService{
				ListFunc: func(_ context.Context, limit, offset int) ([]*models.Account, error) {
					gotLimit, gotOffset = limit, offset
					return []*models.Account{testAccount()}, nil
				},
			}
			w := httptest.NewRecorder()
			adminRouter(handlers.NewAdminHandler(service, nil), adminAccount()).
				ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/users"+tt.query, nil))

			var resp handlers.AccountListResponse
			handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
			assert.Equal(t, tt.wantLimit, gotLimit)
			assert.Equal(t, tt.wantOffset, gotOffset)
			require.Len(t, resp.Accounts, 1)
			assert.Equal(t, "alice@example.com", resp.Accounts[0].Email)
		})
	}
}

func TestAdminHandler_ToggleActive(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "success", wantStatus: http.StatusOK},
		{name: "self", err: models.ErrCannotModifySelf, wantStatus: http.StatusBadRequest, wantCode: pkghttp.CodeBadRequest},
		{name: "missing", err: models.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: pkghttp.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotActor, gotTarget string
			service := &handlers.MockAdminService{
				ToggleActiveFunc: func(_ context.Context, actorID, targetID string) (*models.Account, error) {
					gotActor, gotTarget = actorID, targetID
					if tt.err != nil {
						return nil, tt.err
					}
					a := testAccount()
					a.IsActive = false
					return a, nil
				},
			}
			w := httptest.NewRecorder()
			adminRouter(handlers.NewAdminHandler(service, nil), adminAccount()).
				ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/users/"+testAccount().ID+"/toggle-active", nil))

			assert.Equal(t, adminAccount().ID, gotActor)
			assert.Equal(t, testAccount().ID, gotTarget)
			if tt.err != nil {
				handlers.AssertErrorResponse(t, w, tt.wantStatus, tt.wantCode)
				return
			}
			var resp handlers.AccountResponse
			handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
			assert.False(t, resp.IsActive)
		})
	}
}

func TestAdminHandler_DeleteAccount(t *testing.T) {
	service := &handlers.MockAdminService{
		DeleteFunc: func(_ context.Context, actorID, targetID string) error {
			if actorID == targetID {
				return models.ErrCannotModifySelf
			}
			return nil
		},
	}
	router := adminRouter(handlers.NewAdminHandler(service, nil), adminAccount())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/admin/users/"+testAccount().ID, nil))
	handlers.AssertJSONResponse(t, w, http.StatusOK, nil)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/admin/users/"+adminAccount().ID, nil))
	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, pkghttp.CodeBadRequest)
}

func TestAdminHandler_GetStats(t *testing.T) {
	service := &handlers.MockAdminService{
		StatsFunc: func(context.Context) (*services.DashboardStats, error) {
			return &services.DashboardStats{TotalAccounts: 3, AdminCount: 1}, nil
		},
	}
	w := httptest.NewRecorder()
	adminRouter(handlers.NewAdminHandler(service, nil), adminAccount()).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))

	var resp services.DashboardStats
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, 3, resp.TotalAccounts)
	assert.Equal(t, 1, resp.AdminCount)
}
