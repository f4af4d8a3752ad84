package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/studykit/studygate/internal/config"
	"github.com/studykit/studygate/internal/ratelimit"
	"github.com/studykit/studygate/internal/server"
	"github.com/studykit/studygate/internal/session"
	"github.com/studykit/studygate/internal/telemetry"
	"github.com/studykit/studygate/internal/upstream"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownTracer, err := telemetry.Init("studygate", logger)
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	sessions := session.NewStore(cfg.Auth.SessionTTL)
	limiter := ratelimit.New(cfg.RateLimit.Window, cfg.RateLimit.MaxRequests)

	gateway := upstream.New(cfg.Upstream.APIKey,
		upstream.WithBaseURL(cfg.Upstream.BaseURL),
		upstream.WithModels(cfg.Upstream.Model, cfg.Upstream.SpeechModel, cfg.Upstream.SpeechVoice),
	)

	// Background sweepers run at most one rate-limit window apart so
	// stale state never outlives a window by much.
	sweepCtx, stopSweeps := context.WithCancel(context.Background())
	defer stopSweeps()
	go limiter.Run(sweepCtx, cfg.RateLimit.Window)
	go sessions.Run(sweepCtx, sweepInterval(cfg.Auth.SessionTTL, cfg.RateLimit.Window))

	srv := server.New(cfg, logger, sessions, limiter, gateway)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	logger.Info("gateway started",
		slog.Int("port", cfg.Server.Port),
		slog.Bool("auth_enabled", cfg.AuthEnabled()),
		slog.Int("rate_limit_max", cfg.RateLimit.MaxRequests),
		slog.Duration("rate_limit_window", cfg.RateLimit.Window),
	)
	if !cfg.AuthEnabled() {
		logger.Warn("no password configured, authentication is disabled")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("gateway shutdown complete")
}

// sweepInterval picks the session sweep cadence: often enough to track
// the shorter of the session TTL and the rate window, but at least once
// per rate window as a floor.
func sweepInterval(ttl, window time.Duration) time.Duration {
	if ttl > 0 && ttl < window {
		return ttl
	}
	return window
}
