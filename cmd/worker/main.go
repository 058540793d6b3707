package main

import (
	"context"
	"os/signal"
	"syscall"

	"creatorflow/internal/config"
	"creatorflow/internal/logger"
	"creatorflow/internal/pgmq"
	"creatorflow/internal/pubsub"
	"creatorflow/internal/repository"
	"creatorflow/internal/service"
	"creatorflow/internal/worker/publisher"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	logger := logger.New()

	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DBConnectionString)
	if err != nil {
		logger.Fatal().Msgf("Failed to create DB pool: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Msgf("Failed to ping DB: %v", err)
	}
	logger.Info().Msg("Database connection established")

	pgmqClient := pgmq.New(pool)
	contentRepo := repository.NewContentRepo(pool, logger)

	var eventPub pubsub.Publisher
	var secretSvc service.SecretManagerService
	if cfg.GCPProjectID != "" {
		p, err := pubsub.NewPublisher(ctx, cfg)
		if err != nil {
			logger.Fatal().Msgf("Failed to create Pub/Sub publisher: %v", err)
		}
		eventPub = p

		secretSvc, err = service.NewSecretManagerService(ctx, cfg)
		if err != nil {
			logger.Fatal().Msgf("Failed to create Secret Manager client: %v", err)
		}
	} else {
		logger.Warn().Msg("GCP_PROJECT_ID not set; publishing without platform tokens or analytics")
	}

	if err := publisher.Run(ctx, logger, pgmqClient, contentRepo, secretSvc, eventPub, cfg); err != nil {
		logger.Fatal().Msgf("Publish worker failed: %v", err)
	}

	logger.Info().Msg("Publish worker stopped gracefully")
}
