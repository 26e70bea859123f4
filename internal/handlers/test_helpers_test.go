package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/mybiotracker/internal/auth"
	"github.com/BradenHooton/mybiotracker/internal/models"
	"github.com/BradenHooton/mybiotracker/internal/services"
	pkghttp "github.com/BradenHooton/mybiotracker/pkg/http"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAccountContext attaches an authenticated account, as the auth middleware would
func WithAccountContext(req *http.Request, account *models.Account) *http.Request {
	return req.WithContext(auth.WithAccount(req.Context(), account))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target any) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	if target != nil {
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), target), "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) pkghttp.ErrorResponse {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
	return resp
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc          func(ctx context.Context, email, password, code, ipAddress string) (*services.LoginResult, error)
	RegisterFunc       func(ctx context.Context, email, password string) (*models.Account, error)
	RefreshFunc        func(ctx context.Context, refreshToken string) (*services.LoginResult, error)
	ChangePasswordFunc func(ctx context.Context, accountID, oldPassword, newPassword string) error
}

func (m *MockAuthService) Login(ctx context.Context, email, password, code, ipAddress string) (*services.LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password, code, ipAddress)
	}
	return nil, models.ErrInvalidCredentials
}

func (m *MockAuthService) Register(ctx context.Context, email, password string) (*models.Account, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, email, password)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*services.LoginResult, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, refreshToken)
	}
	return nil, models.ErrTokenInvalid
}

func (m *MockAuthService) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, accountID, oldPassword, newPassword)
	}
	return nil
}

// MockMFAService implements MFAServiceInterface for testing
type MockMFAService struct {
	BeginSetupFunc   func(ctx context.Context, accountID string) (*services.TwoFactorSetup, error)
	ConfirmSetupFunc func(ctx context.Context, accountID, code string) error
	DisableFunc      func(ctx context.Context, accountID string) error
	BackupCodesFunc  func(ctx context.Context, accountID string) ([]string, error)
}

func (m *MockMFAService) BeginSetup(ctx context.Context, accountID string) (*services.TwoFactorSetup, error) {
	if m.BeginSetupFunc != nil {
		return m.BeginSetupFunc(ctx, accountID)
	}
	return nil, models.ErrInternalServer
}

func (m *MockMFAService) ConfirmSetup(ctx context.Context, accountID, code string) error {
	if m.ConfirmSetupFunc != nil {
		return m.ConfirmSetupFunc(ctx, accountID, code)
	}
	return nil
}

func (m *MockMFAService) Disable(ctx context.Context, accountID string) error {
	if m.DisableFunc != nil {
		return m.DisableFunc(ctx, accountID)
	}
	return nil
}

func (m *MockMFAService) BackupCodes(ctx context.Context, accountID string) ([]string, error) {
	if m.BackupCodesFunc != nil {
		return m.BackupCodesFunc(ctx, accountID)
	}
	return []string{}, nil
}

// MockAdminService implements AdminServiceInterface for testing
type MockAdminService struct {
	ListFunc         func(ctx context.Context, limit, offset int) ([]*models.Account, error)
	ToggleActiveFunc func(ctx context.Context, actorID, targetID string) (*models.Account, error)
	DeleteFunc       func(ctx context.Context, actorID, targetID string) error
	StatsFunc        func(ctx context.Context) (*services.DashboardStats, error)
}

func (m *MockAdminService) List(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.Account{}, nil
}

func (m *MockAdminService) ToggleActive(ctx context.Context, actorID, targetID string) (*models.Account, error) {
	if m.ToggleActiveFunc != nil {
		return m.ToggleActiveFunc(ctx, actorID, targetID)
	}
	return nil, models.ErrNotFound
}

func (m *MockAdminService) Delete(ctx context.Context, actorID, targetID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, actorID, targetID)
	}
	return nil
}

func (m *MockAdminService) Stats(ctx context.Context) (*services.DashboardStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return &services.DashboardStats{}, nil
}
