// Command secwatch-server starts the REST API with QRadar event forwarding.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"secwatch/internal/config"
	"secwatch/internal/guard"
	"secwatch/internal/migrate"
	"secwatch/internal/repository/postgres"
	httpserver "secwatch/internal/server/http"
	"secwatch/internal/service"
	"secwatch/internal/siem"
	"secwatch/internal/token"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main builds configuration, runs migrations, wires the components and
// serves HTTP until SIGINT/SIGTERM.
func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.HTTPAddr),
	)

	if cfg.JWTSecret == "" {
		logger.Fatal("missing signing key (JWT_SECRET_KEY)")
	}

	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, Environment: cfg.Environment})
		if err != nil {
			logger.Error("sentry init", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseURL); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("postgres.New", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	userRepo := postgres.NewUserRepo(db)
	activityRepo := postgres.NewActivityRepo(db)

	// SIEM forwarder; disabled when no collector is configured.
	forwarder := siem.NewForwarder(cfg.CollectorAddr(), cfg.QRadarProtocol, cfg.QRadarSendTimeout, logger)
	defer forwarder.Close()
	if forwarder.Enabled() {
		logger.Info("forwarding security events",
			zap.String("collector", cfg.CollectorAddr()),
			zap.String("protocol", cfg.QRadarProtocol),
		)
	}

	// Services
	tokens := token.NewService([]byte(cfg.JWTSecret), cfg.AccessTTL, cfg.RefreshTTL)
	g := guard.New(cfg.MaxLoginAttempts, cfg.LockoutDuration)
	authSvc := service.NewAuthService(userRepo, activityRepo, tokens, g, forwarder, logger)
	userSvc := service.NewUserService(userRepo, activityRepo, forwarder, logger)

	api := httpserver.New(authSvc, userSvc, logger, cfg.CORSAllowedOrigins)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		errCh <- srv.ListenAndServe()
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
