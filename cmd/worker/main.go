package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kevinluu/screenline/internal/config"
	"github.com/kevinluu/screenline/internal/extract"
	"github.com/kevinluu/screenline/internal/logger"
	"github.com/kevinluu/screenline/internal/notify"
	"github.com/kevinluu/screenline/internal/pipeline"
	"github.com/kevinluu/screenline/internal/prompts"
	"github.com/kevinluu/screenline/internal/repository"
	"github.com/kevinluu/screenline/internal/scoring"
	"github.com/kevinluu/screenline/internal/storage"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logCfg := logger.DefaultConfig()
	appLog := logger.New(logCfg)
	logger.SetDefault(appLog)
	defer logger.Sync()

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize database")
	}
	candidateRepo := repository.NewCandidateRepository(db)
	jobRepo := repository.NewJobRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	objectStorage, err := storage.NewS3Storage(&storage.S3Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		PublicURL: cfg.Storage.PublicURL,
	})
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize storage")
	}

	analyzer := pipeline.NewAnalyzer(pipeline.AnalyzerDeps{
		Storage:    objectStorage,
		Extractor:  extract.NewExtractor(nil),
		Candidates: candidateRepo,
		Jobs:       jobRepo,
		Activity:   activityRepo,
		Oracle: scoring.NewClient(&scoring.Config{
			Model:       cfg.Oracle.Model,
			APIKey:      cfg.Oracle.APIKey,
			BaseURL:     cfg.Oracle.BaseURL,
			Timeout:     cfg.Oracle.Timeout,
			MaxAttempts: cfg.Oracle.MaxAttempts,
			RetryBase:   cfg.Oracle.RetryBase,
		}),
		Dispatcher: notify.NewDispatcher(notify.Config{
			EmailWebhookURL: cfg.Notify.EmailWebhookURL,
			EmailFrom:       cfg.Notify.EmailFrom,
			SlackWebhookURL: cfg.Notify.SlackWebhookURL,
			TeamsWebhookURL: cfg.Notify.TeamsWebhookURL,
			FrontendURL:     cfg.Notify.FrontendURL,
			SchedulingLink:  cfg.Notify.SchedulingLink,
		}),
		Callback: pipeline.NewCallbackClient(cfg.Callback.URL),
		Rules: scoring.Rules{
			PassOverall:          cfg.Rules.PassOverall,
			PassTech:             cfg.Rules.PassTech,
			BorderlineOverall:    cfg.Rules.BorderlineOverall,
			BorderlineTech:       cfg.Rules.BorderlineTech,
			BorderlineMaxMissing: cfg.Rules.BorderlineMaxMissing,
		},
		Weights: prompts.AxisWeights{
			Tech:       cfg.Weights.Tech,
			Experience: cfg.Weights.Experience,
			Language:   cfg.Weights.Language,
			Culture:    cfg.Weights.Culture,
		},
	})

	runtime, err := pipeline.NewRuntime(pipeline.RuntimeConfig{
		RedisURL:    cfg.Redis.URL,
		MaxAttempts: cfg.Worker.MaxAttempts,
		BackoffBase: cfg.Worker.BackoffBase,
		Concurrency: cfg.Worker.Concurrency,
		RateLimit:   cfg.Worker.RateLimit,
		RateWindow:  cfg.Worker.RateWindow,
	}, analyzer)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize pipeline runtime")
	}

	ctx := appLog.WithContext(context.Background())
	if err := runtime.Ping(ctx); err != nil {
		appLog.WithError(err).Fatal("Queue backing store unreachable")
	}

	runtime.Start(ctx)
	appLog.WithFields(logger.Fields{
		"concurrency": cfg.Worker.Concurrency,
		"rate_limit":  cfg.Worker.RateLimit,
	}).Info("Worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := runtime.Shutdown(shutdownCtx); err != nil {
		appLog.WithError(err).Error("Worker shutdown error")
	}

	appLog.Info("Worker exited")
}
