package routes

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/mybiotracker/internal/auth"
	"github.com/BradenHooton/mybiotracker/internal/handlers"
	"github.com/BradenHooton/mybiotracker/internal/middleware"
	pkghttp "github.com/BradenHooton/mybiotracker/pkg/http"
	"github.com/go-chi/chi/v5"
)

// Config carries the handlers and policies the router mounts
type Config struct {
	Auth          *handlers.AuthHandler
	MFA           *handlers.MFAHandler
	Admin         *handlers.AdminHandler
	Authenticator auth.Authenticator
	Logger        *slog.Logger
	IPConfig      *pkghttp.IPConfig

	LoginRateLimit    int // per client address per minute
	RegisterRateLimit int
	TwoFactorLimit    int // per account per minute, covers verify-2fa

	Health  func(ctx context.Context) error // nil reports healthy
	Metrics http.Handler                    // nil leaves /metrics unmounted
}

// Default per-minute limits
const (
	DefaultLoginRateLimit    = 5
	DefaultRegisterRateLimit = 3
	DefaultTwoFactorLimit    = 5
)

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, cfg Config) {
	cfg.LoginRateLimit = orDefault(cfg.LoginRateLimit, DefaultLoginRateLimit)
	cfg.RegisterRateLimit = orDefault(cfg.RegisterRateLimit, DefaultRegisterRateLimit)
	cfg.TwoFactorLimit = orDefault(cfg.TwoFactorLimit, DefaultTwoFactorLimit)
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	requireAuth := auth.AuthMiddleware(cfg.Authenticator, cfg.Logger)

	router.Get("/health", healthHandler(cfg.Health))
	if cfg.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	router.Route("/api/auth", func(r chi.Router) {
		// Public routes
		r.With(middleware.RateLimitByIP(middleware.PerMinute(cfg.RegisterRateLimit), cfg.IPConfig)).
			Post("/register", cfg.Auth.Register)
		r.With(middleware.RateLimitByIP(middleware.PerMinute(cfg.LoginRateLimit), cfg.IPConfig)).
			Post("/login", cfg.Auth.Login)
		r.Post("/refresh", cfg.Auth.Refresh)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/me", cfg.Auth.Me)
			r.Post("/logout", cfg.Auth.Logout)
			r.Post("/change-password", cfg.Auth.ChangePassword)

			r.Post("/setup-2fa", cfg.MFA.Setup)
			r.With(middleware.RateLimitByAccount(middleware.PerMinute(cfg.TwoFactorLimit), cfg.IPConfig)).
				Post("/verify-2fa", cfg.MFA.Verify)
			r.Post("/disable-2fa", cfg.MFA.Disable)
			r.Get("/backup-codes", cfg.MFA.BackupCodes)
		})
	})

	// Admin-only routes
	router.Route("/api/admin", func(r chi.Router) {
		r.Use(requireAuth, auth.RequireAdmin)

		r.Get("/users", cfg.Admin.ListAccounts)
		r.Post("/users/{id}/toggle-active", cfg.Admin.ToggleActive)
		r.Delete("/users/{id}", cfg.Admin.DeleteAccount)
		r.Get("/stats", cfg.Admin.GetStats)
	})
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				pkghttp.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}
