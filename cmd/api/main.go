package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/vozagenda/vozagenda/internal/api/router"
	"github.com/vozagenda/vozagenda/internal/appointments"
	"github.com/vozagenda/vozagenda/internal/capture"
	appconfig "github.com/vozagenda/vozagenda/internal/config"
	"github.com/vozagenda/vozagenda/internal/http/handlers"
	"github.com/vozagenda/vozagenda/internal/observability/metrics"
	"github.com/vozagenda/vozagenda/internal/voice"
	"github.com/vozagenda/vozagenda/pkg/logging"
)

func main() {
	// Load .env in development; ignored when the file is absent
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting vozagenda API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"locale", cfg.VoiceLocale,
	)

	ctx := context.Background()

	// Persistence: Postgres when configured, in-memory otherwise
	var repo appointments.Repository
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		repo = appointments.NewPostgresRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory appointment store")
		repo = appointments.NewInMemoryRepository()
	}

	// Transcript persistence: optional Redis
	var transcriptStore *voice.TranscriptStore
	if cfg.RedisAddr != "" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient := redis.NewClient(opts)
		defer func() { _ = redisClient.Close() }()
		transcriptStore = voice.NewTranscriptStore(redisClient, int64(cfg.TranscriptMaxItems))
	} else {
		logger.Warn("REDIS_ADDR not set, transcripts will not be persisted")
	}

	voiceMetrics := metrics.NewVoiceMetrics(nil)

	// Scheduling and dictation services
	service := appointments.NewService(repo, logger)
	locale := voice.ForCode(cfg.VoiceLocale)
	registry := voice.NewRegistry(locale, appointments.NewVoiceCreator(service), logger, cfg.CompletedResetDelay)

	// Handlers
	apptHandler := appointments.NewHandler(service, logger)
	sessionHandler := handlers.NewVoiceSessionHandler(registry, transcriptStore, logger)
	captureHandler := capture.NewHandler(registry, transcriptStore, voiceMetrics, locale, logger)

	// Prune idle dictation sessions in the background
	pruneCtx, stopPrune := context.WithCancel(ctx)
	defer stopPrune()
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-pruneCtx.Done():
				return
			case <-ticker.C:
				registry.PruneIdle(cfg.SessionIdleTimeout)
			}
		}
	}()

	// Setup router
	routerCfg := &router.Config{
		Logger:              logger,
		AppointmentsHandler: apptHandler,
		VoiceSessions:       sessionHandler,
		CaptureHandler:      captureHandler,
		MetricsHandler:      promhttp.Handler(),
		AdminAuthSecret:     cfg.AdminJWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
