package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/BradenHooton/mybiotracker/internal/auth"
	"github.com/BradenHooton/mybiotracker/internal/background"
	"github.com/BradenHooton/mybiotracker/internal/config"
	"github.com/BradenHooton/mybiotracker/internal/database"
	"github.com/BradenHooton/mybiotracker/internal/handlers"
	"github.com/BradenHooton/mybiotracker/internal/metrics"
	middlewareCustom "github.com/BradenHooton/mybiotracker/internal/middleware"
	"github.com/BradenHooton/mybiotracker/internal/repositories"
	"github.com/BradenHooton/mybiotracker/internal/routes"
	"github.com/BradenHooton/mybiotracker/internal/services"
	pkgauth "github.com/BradenHooton/mybiotracker/pkg/auth"
	pkghttp "github.com/BradenHooton/mybiotracker/pkg/http"
	pkglogger "github.com/BradenHooton/mybiotracker/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

// stores are the persistence backends selected by configuration
type stores struct {
	accounts services.AccountRepository
	pending  services.PendingSetupStore
	health   []func(ctx context.Context) error
	closers  []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func (s *stores) healthCheck(ctx context.Context) error {
	for _, check := range s.health {
		if err := check(ctx); err != nil {
			return err
		}
	}
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	st := &stores{}

	switch cfg.Database.Backend {
	case config.StoreBackendPostgres:
		db, err := database.NewConnection(ctx, &cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		st.closers = append(st.closers, db.Close)
		st.health = append(st.health, db.HealthCheck)

		if cfg.Database.MigrateOnStart {
			if err := database.Migrate(ctx, db.Pool, logger); err != nil {
				st.close()
				return nil, fmt.Errorf("failed to migrate database: %w", err)
			}
		}
		st.accounts = repositories.NewAccountRepository(db)
	default:
		logger.Warn("using in-memory account store, data is lost on restart")
		st.accounts = repositories.NewMemoryAccountRepository()
	}

	if cfg.Redis.URL == "" {
		st.pending = repositories.NewMemoryPendingSetupStore()
		return st, nil
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		st.close()
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		st.close()
		return nil, fmt.Errorf("unable to reach redis: %w", err)
	}
	logger.Info("redis connection established", slog.String("addr", opts.Addr))

	st.closers = append(st.closers, func() { _ = client.Close() })
	st.health = append(st.health, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	st.pending = repositories.NewRedisPendingSetupStore(client, cfg.Redis.KeyPrefix)
	return st, nil
}

func runServe(ctx context.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open stores", slog.Any("error", err))
		return err
	}
	defer st.close()

	hasher, err := pkgauth.NewHasher(pkgauth.DefaultHasherConfig())
	if err != nil {
		return err
	}

	tokenManager, err := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
		auth.WithTokenLogger(logger),
	)
	if err != nil {
		logger.Error("failed to initialize token manager", slog.Any("error", err))
		return err
	}

	authMetrics := metrics.New()
	deps := services.Deps{
		Repo:   st.accounts,
		Hasher: hasher,
		Tokens: tokenManager,
		TOTP:   auth.NewTOTPManager(cfg.Auth.TOTPIssuer),
		Policy: auth.LockoutPolicy{
			Threshold: cfg.Auth.LockoutThreshold,
			Duration:  cfg.Auth.LockoutDuration,
		},
		Delay: auth.NewTimingDelay(auth.TimingConfig{
			BaseDelayMs:   cfg.Auth.TimingDelayBaseMs,
			RandomDelayMs: cfg.Auth.TimingDelayRandomMs,
		}),
		Logger:  logger,
		Audit:   pkglogger.NewAuditLogger(logger),
		Metrics: authMetrics,
	}

	authService := services.NewAuthService(deps)
	mfaService := services.NewMFAService(deps, st.pending, cfg.Auth.PendingSetupTTL)
	adminService := services.NewAdminService(deps)

	if cfg.Auth.AdminEmail != "" && cfg.Auth.AdminPassword != "" {
		adminCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := authService.EnsureAdmin(adminCtx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			logger.Error("failed to ensure admin account", slog.Any("error", err))
		}
		cancel()
	} else {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin account creation")
	}

	ipConfig := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)
	accessTTL := int(tokenManager.AccessTokenExpiry().Seconds())

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, routes.Config{
		Auth:              handlers.NewAuthHandler(authService, ipConfig, logger, accessTTL),
		MFA:               handlers.NewMFAHandler(mfaService, nil, logger),
		Admin:             handlers.NewAdminHandler(adminService, logger),
		Authenticator:     authService,
		Logger:            logger,
		IPConfig:          ipConfig,
		LoginRateLimit:    cfg.Server.LoginRateLimit,
		RegisterRateLimit: cfg.Server.RegisterLimit,
		TwoFactorLimit:    cfg.Server.TwoFactorRateLimit,
		Health:            st.healthCheck,
		Metrics:           authMetrics.Handler(),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	cleanupManager := background.NewCleanupManager(mfaService, logger, cfg.Auth.CleanupInterval)
	go cleanupManager.Start(cleanupCtx)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("server error", slog.Any("error", err))
			cleanupManager.Stop()
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		return err
	}

	logger.Info("server stopped gracefully")
	return nil
}
