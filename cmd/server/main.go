package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/makingtheimpact/blnk-icu/internal/config"
	"github.com/makingtheimpact/blnk-icu/internal/handlers"
	"github.com/makingtheimpact/blnk-icu/internal/repository"
	"github.com/makingtheimpact/blnk-icu/internal/services"

	"github.com/gin-gonic/gin"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(appEnv string) *slog.Logger {
	var handler slog.Handler
	if appEnv == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(handler)
}

func Run(ctx context.Context) error {
	// 1. Load and validate config
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// 2. Setup Logger
	logger := newLogger(cfg.AppEnv)
	slog.SetDefault(logger)

	// 3. Initialize Database
	db, err := repository.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	// 4. Run Migrations
	if err := repository.Migrate(db, cfg.DatabaseURL, logger); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// 5. Initialize Redis (optional: the link cache is skipped without it)
	rdb, err := repository.InitRedis(cfg.RedisURL, cfg.RedisPassword, 0)
	if err != nil {
		logger.Warn("Failed to connect to Redis, link cache disabled", "error", err)
	} else {
		defer rdb.Close()
	}

	// 6. Initialize Services
	creds := services.NewCredentialStore(cfg.JWTSecret, cfg.TokenTTL())
	auditService := services.NewAuditService(db, logger)
	geoIPService := services.NewGeoIPService(cfg, logger)
	statsService := services.NewStatsService(db, logger, geoIPService)
	accountService := services.NewAccountService(db, creds, auditService, logger)
	shortenerService := services.NewShortenerService(db, rdb, auditService, logger, cfg.BaseURL)
	qrService := services.NewQRService(db, cfg.BaseURL, statsService, auditService, logger)

	var botVerifier services.BotVerifier = services.NewRecaptchaVerifier(
		cfg.RecaptchaSecret, cfg.RecaptchaVerifyURL, cfg.RecaptchaMinScore, cfg.RecaptchaTimeoutDuration(), logger)
	if cfg.RecaptchaDisabled {
		logger.Warn("Bot verification disabled")
		botVerifier = services.NoopVerifier{}
	}

	limits := handlers.Limiters{
		Shorten:  services.PerMinute(cfg.ShortenPerMinute, logger),
		Redirect: services.PerMinute(cfg.RedirectPerMinute, logger),
	}

	// 7. Initialize Handler
	h := handlers.NewHandler(cfg, logger, accountService, shortenerService, statsService, qrService, botVerifier)

	// 8. Setup Router
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := h.SetupRouter(limits)

	// 9. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	go auditService.Start(workerCtx)
	go statsService.Start(workerCtx)
	go func() {
		geoIPService.Init()
		geoIPService.StartUpdater(workerCtx, 24*time.Hour)
	}()
	go limits.Shorten.StartCleanup(workerCtx, time.Minute, 10*time.Minute)
	go limits.Redirect.StartCleanup(workerCtx, time.Minute, 10*time.Minute)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	workerCancel()
	// Give the workers a moment to flush queued rows.
	time.Sleep(100 * time.Millisecond)
	geoIPService.Close()

	logger.Info("Server exiting")
	return nil
}
