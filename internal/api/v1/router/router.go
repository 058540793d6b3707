package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"creatorflow/internal/abuse"
	"creatorflow/internal/api/v1/handler"
	"creatorflow/internal/config"
	"creatorflow/internal/middleware"
	"creatorflow/internal/pgmq"
	"creatorflow/internal/pubsub"
	"creatorflow/internal/ratelimit"
	"creatorflow/internal/repository"
	"creatorflow/internal/service"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsmiddleware "github.com/aws/smithy-go/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// New wires the repositories, services, and handlers into the v1 HTTP API.
// The returned ContentService is shared with the cron scheduler.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (http.Handler, *pgxpool.Pool, service.ContentService, error) {
	logger.Info().Str("environment", cfg.Environment).Msg("Router initializing")

	dsn := cfg.DBConnectionString
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		separator := "?"
		if strings.Contains(dsn, "?") {
			separator = "&"
		}
		dsn += separator + "sslmode=disable"
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create DB pool")
		return nil, nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to ping DB")
		pool.Close()
		return nil, nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	// S3 client for the media library. Works against any S3-compatible store.
	s3Config, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load S3 config")
		pool.Close()
		return nil, nil, nil, err
	}
	s3Client := s3.NewFromConfig(s3Config, func(o *s3.Options) {
		if cfg.S3URL != "" {
			o.BaseEndpoint = aws.String(cfg.S3URL)
		}
		o.UsePathStyle = true
	})

	validate := validator.New(validator.WithRequiredStructEnabled())

	// Analytics publishing and the platform token vault both need a GCP
	// project. Without one the API runs with those surfaces disabled.
	var publisher pubsub.Publisher
	var secretSvc service.SecretManagerService
	if cfg.GCPProjectID != "" {
		p, err := pubsub.NewPublisher(ctx, cfg)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create Pub/Sub publisher")
			pool.Close()
			return nil, nil, nil, err
		}
		publisher = p

		secretSvc, err = service.NewSecretManagerService(ctx, cfg)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create Secret Manager client")
			pool.Close()
			return nil, nil, nil, err
		}
	} else {
		logger.Warn().Msg("GCP_PROJECT_ID not set; analytics events and platform tokens disabled")
	}

	// Shared fixed-window limiter: HTTP rate limiting and the signup abuse
	// gates count against the same store.
	limiter := ratelimit.New()
	limiter.StartSweeper(ctx, 5*time.Minute)

	userRepo := repository.NewUserRepo(pool)
	signupRepo := repository.NewSignupLogRepo(pool)
	usageRepo := repository.NewUsageRepo(pool)
	contentRepo := repository.NewContentRepo(pool, logger)
	mediaRepo := repository.NewMediaRepo(pool)
	queue := pgmq.New(pool)

	checker := abuse.NewChecker(signupRepo, userRepo, limiter, abuse.Config{
		MaxAccountsPerIP:     cfg.MaxAccountsPerIP,
		MaxAccountsPerDomain: cfg.MaxAccountsPerEmailDomain,
		MaxAccountsPerDevice: cfg.MaxAccountsPerDevice,
		SignupRateLimitMax:   cfg.SignupRateLimitMax,
		RelaxChecks:          cfg.RelaxAbuseChecks(),
	}, logger)

	accessTTL := time.Duration(cfg.AccessTokenTTLMin) * time.Minute
	refreshTTL := time.Duration(cfg.RefreshTokenTTLHours) * time.Hour

	userSvc := service.NewUserService(userRepo, cfg.JWTSecret, accessTTL, refreshTTL, cfg.TrialDays, logger)
	usageSvc := service.NewUsageService(usageRepo, publisher, cfg.AnalyticsTopic, logger)
	contentSvc := service.NewContentService(contentRepo, usageSvc, queue, cfg.PublishQueueName, logger)
	botSvc := service.NewBotService()
	mediaSvc := service.NewMediaService(mediaRepo, usageSvc, s3Client, cfg.S3Bucket, logger)
	stripeSvc := service.NewStripeService(cfg, userRepo, publisher, logger)

	authHandler := handler.NewAuthHandler(userSvc, checker, validate, logger)
	userHandler := handler.NewUserHandler(userSvc, usageSvc, logger)
	contentHandler := handler.NewContentHandler(contentSvc, validate, logger)
	botHandler := handler.NewBotHandler(botSvc, usageSvc, validate, logger)
	mediaHandler := handler.NewMediaHandler(mediaSvc, validate, logger)
	subscriptionHandler := handler.NewSubscriptionHandler(stripeSvc, validate, logger)

	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret, userRepo, logger)
	signupRateLimit := signupLimitMiddleware(cfg, limiter)

	apiV1Mux := http.NewServeMux()
	authHandler.RegisterRoutes(apiV1Mux, signupRateLimit)
	userHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	contentHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	botHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	mediaHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	subscriptionHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	if secretSvc != nil {
		platformHandler := handler.NewPlatformHandler(secretSvc, validate, logger)
		platformHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	}

	mux := http.NewServeMux()
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(c.Handler(mux)), pool, contentSvc, nil
}

// signupLimitMiddleware returns the per-IP request limit wrapped around the
// signup route. Relaxing the abuse checks skips this limit too, so only the
// checker's disposable-email gate remains between the request and signup.
func signupLimitMiddleware(cfg *config.Config, limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	if cfg.RelaxAbuseChecks() {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.RateLimitMiddleware(limiter, ratelimit.Config{
		MaxRequests: cfg.SignupRateLimitMax,
		Window:      time.Hour,
		Bucket:      "signup-http",
	})
}

// removeDisableGzip is a workaround for S3 signature errors with some
// S3-compatible services.
// See: https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
