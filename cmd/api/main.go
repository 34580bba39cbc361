package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/vibeocm/vibeocm-backend/config"
	httpapi "github.com/vibeocm/vibeocm-backend/internal/api/http"
	"github.com/vibeocm/vibeocm-backend/internal/analytics"
	"github.com/vibeocm/vibeocm-backend/internal/bootstrap"
	"github.com/vibeocm/vibeocm-backend/internal/llm"
	"github.com/vibeocm/vibeocm-backend/internal/logging"
	"github.com/vibeocm/vibeocm-backend/internal/retention"
	"github.com/vibeocm/vibeocm-backend/internal/wizard/repository"
	"github.com/vibeocm/vibeocm-backend/internal/wizard/service"
)

const serviceName = "vibeocm-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.Init(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Fatal("redis unavailable", zap.Error(err))
	}
	defer func() { _ = rdb.Close() }()
	sessions := repository.NewSessionRepository(rdb, cfg.Redis.SessionTTL)

	var (
		history   service.ArtifactStore = repository.NoopArtifactRepository{}
		dbPinger  httpapi.Pinger
		scheduler *retention.Scheduler
	)
	if cfg.DatabaseEnabled() {
		pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: cfg.Database.DSN})
		if err != nil {
			logger.Fatal("database unavailable", zap.Error(err))
		}
		defer pool.Close()

		sqlDB := bootstrap.OpenSQL(pool)
		defer func() { _ = sqlDB.Close() }()

		repo := repository.NewArtifactRepository(sqlDB)
		if err := repo.EnsureSchema(ctx); err != nil {
			logger.Fatal("artifact schema", zap.Error(err))
		}
		history, dbPinger = repo, repo

		scheduler, err = retention.NewScheduler(repo, cfg.Retention.MaxAge, cfg.Retention.Schedule)
		if err != nil {
			logger.Fatal("retention scheduler", zap.Error(err))
		}
		scheduler.Start()
	} else {
		logger.Info("DB_DSN not set; artifact history disabled")
	}

	sink := analytics.New(cfg.Analytics.PostHogKey, cfg.Analytics.PostHogHost)
	defer sink.Close()

	completer := llm.NewClient(llm.Config{
		OpenAIBaseURL:  cfg.LLM.OpenAIBaseURL,
		MistralBaseURL: cfg.LLM.MistralBaseURL,
		MaxAttempts:    cfg.LLM.MaxAttempts,
		BackoffBase:    cfg.LLM.BackoffBase,
		Timeout:        cfg.LLM.Timeout,
		RatePerSecond:  cfg.LLM.RatePerSecond,
	})
	gen := service.NewGenerator(completer, sink, service.GeneratorConfig{
		DefaultMistralKey: cfg.LLM.DefaultMistralAPIKey,
		Temperature:       cfg.LLM.Temperature,
		MaxTokens:         cfg.LLM.MaxTokens,
	})
	wizard := service.NewWizardService(sessions, history, gen, sink, service.WizardConfig{
		HashedPassphrase: cfg.Auth.HashedPassphrase,
	})

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: serviceName,
		Version:     cfg.App.Version,
		CORSOrigins: cfg.Server.CORSOrigins,
		Flags: httpapi.Flags{
			TrialAvailable:   cfg.TrialAvailable(),
			AnalyticsEnabled: cfg.AnalyticsEnabled(),
			AnalyticsHost:    cfg.Analytics.PostHogHost,
		},
		Wizard: wizard,
		DB:     dbPinger,
		Redis:  sessions,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
	logger.Info("server stopped")
}
