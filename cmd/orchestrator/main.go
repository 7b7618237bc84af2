package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"complianceai/internal/config"
	"complianceai/internal/logger"
	"complianceai/internal/orchestrator/learning"
	"complianceai/internal/orchestrator/maintenance"
	"complianceai/internal/pgmq"
	"complianceai/internal/ratelimit"
	"complianceai/internal/repository"
	"complianceai/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	// Parse mode flag
	mode := flag.String("mode", "", "Orchestrator mode: learning|maintenance")
	flag.Parse()

	logger := logger.New()

	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}
	if cfg.SecretSource == "gcp" {
		loadSecrets(cfg, logger)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Set up context with graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := repository.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("Database connection established")

	// Dispatch to the selected orchestrator
	var runErr error
	switch *mode {
	case "learning":
		runErr = runLearning(ctx, cfg, pool, logger)
	case "maintenance":
		runErr = runMaintenance(ctx, cfg, pool, logger)
	default:
		logger.Fatal().Msgf("Invalid mode: %s", *mode)
	}

	if runErr != nil {
		logger.Fatal().Msgf("%s orchestrator failed: %v", *mode, runErr)
	}
	logger.Info().Msgf("%s orchestrator stopped gracefully", *mode)
}

func runLearning(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) error {
	// pgmq is driven through database/sql on top of the same pool.
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	client := pgmq.New(db)
	if err := client.CreateQueue(ctx, cfg.LearningQueueName); err != nil {
		return err
	}

	memory := service.NewMemoryService(repository.NewAIRepo(pool), repository.NewCompanyRepo(pool), logger)
	worker := learning.NewWorker(client, memory, repository.NewDLQRepository(pool), learning.Settings{
		QueueName:      cfg.LearningQueueName,
		PollTimeoutSec: cfg.LearningPollTimeoutSec,
		PollMaxMsg:     cfg.LearningPollMaxMsg,
		MaxRetries:     cfg.LearningMaxRetries,
	}, logger)
	return worker.Run(ctx)
}

func runMaintenance(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) error {
	userRepo := repository.NewUserRepo(pool)
	sessions := service.NewSessionService(repository.NewSessionRepo(pool), userRepo, cfg.SessionSecret, cfg.SessionTTL, logger)
	subscriptions := service.NewSubscriptionService(repository.NewSubscriptionRepo(pool), repository.NewUsageRepo(pool), logger)
	rateLimits := ratelimit.NewPostgresStore(pool)

	tasks := []maintenance.Task{
		{Name: "expired_sessions", Run: sessions.PurgeExpired},
		{Name: "ended_subscriptions", Run: subscriptions.ExpireEnded},
		{Name: "rate_limit_windows", Run: func(ctx context.Context) (int64, error) {
			n, err := rateLimits.Sweep(ctx, time.Now())
			return int64(n), err
		}},
	}
	return maintenance.Run(ctx, cfg.MaintenanceInterval, tasks, logger)
}

func loadSecrets(cfg *config.Config, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	sm, err := service.NewSecretManagerService(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create Secret Manager client")
	}
	defer sm.Close()
	service.ApplySecrets(ctx, cfg, sm, logger)
}
