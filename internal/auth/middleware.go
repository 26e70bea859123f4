package auth

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"

	"github.com/BradenHooton/mybiotracker/internal/models"
	pkghttp "github.com/BradenHooton/mybiotracker/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// AccountContextKey is the key for the authenticated account in the request context
	AccountContextKey contextKey = "account"
)

// Authenticator resolves an access token to a live account
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.Account, error)
}

// AuthMiddleware requires a valid bearer access token naming an active, unlocked account
func AuthMiddleware(authenticator Authenticator, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := pkghttp.BearerToken(r)
			if !ok {
				pkghttp.WriteUnauthorized(w, "missing or malformed authorization header")
				return
			}

			account, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				var locked *models.AccountLockedError
				switch {
				case errors.As(err, &locked):
					pkghttp.WriteLocked(w, int(math.Ceil(locked.RetryAfter.Seconds())), locked.Error())
				case errors.Is(err, models.ErrTokenInvalid),
					errors.Is(err, models.ErrNotFound),
					errors.Is(err, models.ErrAccountDisabled):
					pkghttp.WriteUnauthorized(w, "could not validate credentials")
				default:
					logger.Error("authentication lookup failed", slog.Any("error", err))
					pkghttp.WriteInternalError(w, "internal server error")
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), account)))
		})
	}
}

// RequireAdmin rejects callers whose account lacks the admin flag. Must run after AuthMiddleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account := GetAccountFromContext(r)
		if account == nil {
			pkghttp.WriteUnauthorized(w, "unauthorized")
			return
		}
		if !account.IsAdmin {
			pkghttp.WriteForbidden(w, "admin privileges required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetAccountFromContext returns the authenticated account, or nil outside AuthMiddleware
func GetAccountFromContext(r *http.Request) *models.Account {
	account, ok := r.Context().Value(AccountContextKey).(*models.Account)
	if !ok {
		return nil
	}
	return account
}

// WithAccount stores account in ctx the same way AuthMiddleware does
func WithAccount(ctx context.Context, account *models.Account) context.Context {
	return context.WithValue(ctx, AccountContextKey, account)
}
