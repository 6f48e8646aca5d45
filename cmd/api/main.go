package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/talentbase/talentbase-auth/internal/auth"
	"github.com/talentbase/talentbase-auth/internal/background"
	"github.com/talentbase/talentbase-auth/internal/config"
	"github.com/talentbase/talentbase-auth/internal/database"
	"github.com/talentbase/talentbase-auth/internal/handlers"
	middlewareCustom "github.com/talentbase/talentbase-auth/internal/middleware"
	"github.com/talentbase/talentbase-auth/internal/ratelimit"
	"github.com/talentbase/talentbase-auth/internal/repositories"
	"github.com/talentbase/talentbase-auth/internal/routes"
	"github.com/talentbase/talentbase-auth/internal/services"
	pkghttp "github.com/talentbase/talentbase-auth/pkg/http"
	pkglogger "github.com/talentbase/talentbase-auth/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	settingsRepo := repositories.NewMFASettingsRepository(db)
	accountRepo := repositories.NewAccountRepository(db)

	// Admission gate with shared rate limiter
	limiter := ratelimit.NewLimiter()
	gate := auth.NewGate(limiter, auth.GateConfig{
		Window:          cfg.Auth.RateLimitWindow,
		MaxRequests:     cfg.Auth.RateLimitMaxRequests,
		LimitingEnabled: cfg.Auth.RateLimitEnabled,
		TrustedProxies:  cfg.Server.TrustedProxies,
	}, logger)
	gate.MarkPublic("/health")

	// Expired rate-limit record sweeper
	sweeper := background.NewSweeper(limiter, logger, cfg.Auth.SweepInterval)

	// Pending one-time-code challenges
	challenges := services.NewPendingChallengeStore()
	defer challenges.Close()

	// Security services
	auditLogger := pkglogger.NewAuditLogger(logger)
	totpManager := auth.NewTOTPManager(cfg.Auth.IssuerName, cfg.Auth.TOTPSecretLength)

	// AWS SES email delivery
	emailNotifier, err := services.NewSESEmailNotifier(
		cfg.Notifier.AWSRegion,
		cfg.Notifier.FromAddress,
		cfg.Auth.IssuerName,
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize email notifier", slog.Any("error", err))
		os.Exit(1)
	}
	smsNotifier := services.NewLogSMSNotifier(logger)

	// Initialize services
	mfaService := services.NewMFAService(
		settingsRepo,
		accountRepo,
		challenges,
		totpManager,
		emailNotifier,
		smsNotifier,
		logger,
		auditLogger,
		services.MFAConfig{
			Issuer:           cfg.Auth.IssuerName,
			TOTPSecretLength: cfg.Auth.TOTPSecretLength,
			BackupCodeCount:  cfg.Auth.BackupCodeCount,
		},
	)

	// Initialize handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	mfaHandler := handlers.NewMFAHandler(mfaService, ipConfig, logger)
	adminHandler := handlers.NewAdminHandler(limiter)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders())
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(gate.Middleware)

	// Register routes
	routes.RegisterRoutes(router, mfaHandler, adminHandler, cfg.Auth.SendTokenPerMinute)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start sweep task
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()

	go sweeper.Start(sweepCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	sweepCancel()
	sweeper.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
