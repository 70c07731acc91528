package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/orbit-admin-api/internal/backend"
	"github.com/noah-isme/orbit-admin-api/internal/config"
	"github.com/noah-isme/orbit-admin-api/internal/database"
	"github.com/noah-isme/orbit-admin-api/internal/handler"
	"github.com/noah-isme/orbit-admin-api/internal/middleware"
	"github.com/noah-isme/orbit-admin-api/internal/models"
	"github.com/noah-isme/orbit-admin-api/internal/repository"
	"github.com/noah-isme/orbit-admin-api/internal/router"
	"github.com/noah-isme/orbit-admin-api/internal/service"
	"github.com/noah-isme/orbit-admin-api/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable; admin events stay on redis")
		} else {
			defer natsConn.Drain()
		}
	}

	client, err := backend.New(backend.Config{
		BaseURL:           cfg.BackendURL,
		AssignmentBaseURL: cfg.AssignmentBackendURL,
		Timeout:           cfg.BackendTimeout,
		Logger:            logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create backend client")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	activityRepo := repository.NewActivityLogRepository(db)
	draftRepo := repository.NewDraftRepository(redisClient, "")

	activityService := service.NewActivityService(activityRepo, logger)
	feedService := service.NewActivityFeedService(activityRepo, redisClient, cfg.ActivityFeedTTL, logger)
	eventService := service.NewEventService(redisClient, natsConn, service.EventConfig{
		RedisChannel: cfg.EventChannel,
		NATSSubject:  cfg.EventSubject,
		QueueGroup:   cfg.AppName,
	}, logger)
	authService := service.NewAuthService(client, validate, activityService, service.AuthConfig{
		JWTSecret:  cfg.JWTSecret,
		SessionTTL: cfg.SuperAdminSessionTTL,
	}, logger)
	jobService := service.NewJobService(client, redisClient, cfg.JobCacheTTL, validate, activityService, eventService, logger)
	assignmentService := service.NewAssignmentService(client, validate, activityService, eventService, logger)
	gradingService := service.NewGradingService(client, draftRepo, cfg.GradingDraftTTL, activityService, eventService, logger)
	applicantService := service.NewApplicantService(client, validate, activityService, eventService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		ErrorHandler: errorHandler(logger),
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.AllowOrigins,
		AccessLog:    cfg.AppEnv == "development",
	})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, logger),
		JobHandler:        handler.NewAdminJobHandler(jobService, logger),
		AssignmentHandler: handler.NewAdminAssignmentHandler(assignmentService, logger),
		GradingHandler:    handler.NewAdminGradingHandler(gradingService, validate, logger),
		CounsellorHandler: handler.NewAdminApplicantHandler(applicantService, models.ApplicantKindCounsellor, logger),
		AgentHandler:      handler.NewAdminApplicantHandler(applicantService, models.ApplicantKindAgent, logger),
		ActivityHandler:   handler.NewAdminActivityHandler(activityService, logger),
		FeedHandler:       handler.NewActivityFeedHandler(feedService, logger),
		EventHandler:      handler.NewAdminEventHandler(eventService, logger),
		HealthProbes: map[string]handler.HealthProbe{
			"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
			"database": func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
		},
		JWTMiddleware: middleware.JWTProtected(cfg.JWTSecret),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eventService.Start(ctx)

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Msg("admin api listening")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(ctx, app, logger)
}

func errorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "internal server error"
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
			message = fiberErr.Message
		} else {
			logger.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		}
		return utils.SendError(c, code, message)
	}
}

func waitForShutdown(ctx context.Context, app *fiber.App, logger zerolog.Logger) {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
