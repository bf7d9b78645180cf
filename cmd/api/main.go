package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sentiment-probe/internal/config"
	"github.com/noah-isme/sentiment-probe/internal/database"
	"github.com/noah-isme/sentiment-probe/internal/handler"
	"github.com/noah-isme/sentiment-probe/internal/middleware"
	"github.com/noah-isme/sentiment-probe/internal/observability"
	"github.com/noah-isme/sentiment-probe/internal/repository"
	"github.com/noah-isme/sentiment-probe/internal/router"
	"github.com/noah-isme/sentiment-probe/internal/service"
	"github.com/noah-isme/sentiment-probe/pkg/scoring"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", cfg.AppName).Logger()

	recorder := observability.NewRecorder()
	client, err := scoring.New(scoring.Config{
		Timeout:  cfg.ScoringTimeout,
		Recorder: recorder,
		Logger:   logger,
	})
	if err != nil {
		log.Fatalf("failed to create scoring client: %v", err)
	}

	var redisClient *redis.Client
	store := repository.NewMemoryBatchRunRepository(cfg.BatchResultTTL)
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		store = repository.NewRedisBatchRunRepository(redisClient, cfg.BatchResultTTL)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	scoreService := service.NewScoreService(client, validate, cfg.ScoringBaseURL, logger)
	batchService := service.NewBatchService(client, store, validate, service.BatchConfig{
		DefaultServiceURL: cfg.ScoringBaseURL,
		Workers:           cfg.BatchWorkers,
	}, logger)
	datasetService := service.NewDatasetService()

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AccessLog: cfg.AppEnv == "development"})
	router.Register(app, cfg, router.Dependencies{
		ScoreHandler:   handler.NewScoreHandler(scoreService, logger),
		BatchHandler:   handler.NewBatchHandler(batchService, logger),
		MetricsHandler: handler.NewMetricsHandler(recorder),
		DatasetHandler: handler.NewDatasetHandler(datasetService),
		BatchLimiter:   middleware.RateLimit("batch", cfg.BatchRateLimit, cfg.BatchRateWindow),
	})

	logger.Info().
		Str("addr", cfg.HTTPAddress()).
		Str("scoring_base_url", cfg.ScoringBaseURL).
		Dur("scoring_timeout", cfg.ScoringTimeout).
		Int("batch_workers", cfg.BatchWorkers).
		Bool("redis", redisClient != nil).
		Msg("starting sentiment probe")

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	// Allow an in-flight batch a little longer than one upstream timeout.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
