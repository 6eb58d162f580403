package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/preparai-api/internal/config"
	"github.com/noah-isme/preparai-api/internal/database"
	"github.com/noah-isme/preparai-api/internal/grading"
	"github.com/noah-isme/preparai-api/internal/handler"
	"github.com/noah-isme/preparai-api/internal/middleware"
	"github.com/noah-isme/preparai-api/internal/repository"
	"github.com/noah-isme/preparai-api/internal/router"
	"github.com/noah-isme/preparai-api/internal/service"
	"github.com/noah-isme/preparai-api/pkg/ai"
	cloud "github.com/noah-isme/preparai-api/pkg/cloudinary"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "preparai-api").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.AppEnv == "development" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx := context.Background()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	themeRepo := repository.NewThemeRepository(db)
	essayRepo := repository.NewEssayRepository(db)

	if err := themeRepo.EnsurePlaceholder(ctx, grading.PlaceholderThemeID, grading.PlaceholderThemeTitle); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed placeholder theme")
	}

	redisClient, err := database.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, essay detail cache disabled")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, grading events disabled")
	}
	var events service.EventPublisher
	if natsConn != nil {
		defer natsConn.Drain()
		events = natsConn
	}

	var archive service.ImageArchive
	cloudCfg := cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}
	if cloudCfg.Enabled() {
		uploader, err := cloud.New(cloudCfg, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create cloudinary client")
		}
		archive = uploader
	}

	var assessor ai.Client
	if cfg.OpenAIAPIKey != "" {
		client, err := ai.NewOpenAIClient(ai.OpenAIConfig{
			APIKey:    cfg.OpenAIAPIKey,
			Model:     cfg.AIModel,
			BaseURL:   cfg.AIBaseURL,
			MaxTokens: cfg.AIMaxTokens,
			Logger:    logger,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create inference client")
		}
		assessor = client
	} else {
		logger.Warn().Msg("openai api key missing, grading disabled and themes served from fallback")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	themeService := service.NewThemeService(themeRepo, assessor, cfg.InferenceTimeout, logger)
	essayService := service.NewEssayService(service.EssayServiceDeps{
		Essays:    essayRepo,
		Themes:    themeService,
		Assessor:  assessor,
		Cache:     redisClient,
		Events:    events,
		Archive:   archive,
		Validator: validate,
	}, service.EssayServiceConfig{
		InferenceTimeout:     cfg.InferenceTimeout,
		PersistTimeout:       cfg.PersistTimeout,
		StrictClassification: cfg.StrictClassification,
		CacheTTL:             cfg.EssayCacheTTL,
		MaxImageBytes:        cfg.MaxImageBytes(),
		ImageMaxDimension:    cfg.ImageMaxDimension,
		EventSubject:         cfg.EventsSubject,
	}, logger)

	healthChecks := map[string]handler.Pinger{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		healthChecks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    cfg.BodyLimit(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.InferenceTimeout + cfg.PersistTimeout + 10*time.Second,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		EssayHandler:    handler.NewEssayHandler(essayService, validate, logger),
		ThemeHandler:    handler.NewThemeHandler(themeService, logger),
		HealthChecks:    healthChecks,
		AuthMiddleware:  middleware.OptionalJWT(cfg.JWTSecret),
		SubmitRateLimit: middleware.RateLimit("essays", cfg.SubmissionsPerMinute, time.Minute),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
