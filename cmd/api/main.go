package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/loopwar-api/internal/config"
	"github.com/noah-isme/loopwar-api/internal/database"
	"github.com/noah-isme/loopwar-api/internal/handler"
	"github.com/noah-isme/loopwar-api/internal/middleware"
	"github.com/noah-isme/loopwar-api/internal/repository"
	"github.com/noah-isme/loopwar-api/internal/router"
	"github.com/noah-isme/loopwar-api/internal/service"
	"github.com/noah-isme/loopwar-api/internal/utils"
	"github.com/noah-isme/loopwar-api/pkg/ai"
	cloud "github.com/noah-isme/loopwar-api/pkg/cloudinary"
	"github.com/noah-isme/loopwar-api/pkg/judge"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.IsDevelopment() {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}
	logger = logger.With().Str("service", cfg.AppName).Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL, database.PoolConfig{
		MaxOpenConns: cfg.DatabaseMaxOpenConns,
		MaxIdleConns: cfg.DatabaseMaxIdleConns,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	probes := []handler.HealthProbe{{Name: "database", Critical: true, Check: pingDatabase(db)}}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, catalog cache disabled")
		} else {
			defer redisClient.Close()
			probes = append(probes, handler.HealthProbe{Name: "redis", Check: func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}})
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, events will only be logged")
		} else {
			defer natsConn.Drain()
			probes = append(probes, handler.HealthProbe{Name: "nats", Check: func(context.Context) error {
				if !natsConn.IsConnected() {
					return nats.ErrConnectionClosed
				}
				return nil
			}})
		}
	}

	var avatars service.AvatarStorage
	if uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger); err != nil {
		logger.Warn().Err(err).Msg("cloudinary not configured, avatar uploads disabled")
	} else {
		avatars = uploader
	}

	var sandbox judge.Judge
	if runner, err := judge.NewDockerRunner(judge.DockerConfig{
		Host:          cfg.DockerHost,
		Timeout:       cfg.ExecutionTimeout,
		MemoryLimitMB: int64(cfg.CodeRunMemoryMB),
		CPUShares:     int64(cfg.CodeRunCPUShares),
		Logger:        logger,
	}); err != nil {
		logger.Warn().Err(err).Msg("docker unavailable, code execution disabled")
	} else {
		defer runner.Close()
		sandbox = judge.NewSandboxJudge(runner, judge.Config{
			Timeout:       cfg.ExecutionTimeout,
			MemoryLimitMB: int64(cfg.CodeRunMemoryMB),
			CPUShares:     int64(cfg.CodeRunCPUShares),
			Logger:        logger,
		})
		probes = append(probes, handler.HealthProbe{Name: "judge", Check: runner.Ping})
	}

	var (
		reviewer  ai.CodeReviewer
		tutor     ai.Tutor
		generator ai.QuizGenerator
	)
	if client, err := ai.NewOpenAIClient(ai.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
		Logger:  logger,
	}); err != nil {
		logger.Warn().Err(err).Msg("openai not configured, ai features disabled")
	} else {
		reviewer, tutor, generator = client, client, client
	}

	validate := utils.NewValidator()
	debug := cfg.IsDevelopment()
	events := service.NewEventPublisher(natsConn, logger)

	userRepo := repository.NewUserRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	submissionRepo := repository.NewCodeSubmissionRepository(db)
	chatRepo := repository.NewChatRepository(db)
	noteRepo := repository.NewLearningNoteRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	contactRepo := repository.NewContactRepository(db)

	tokens := service.NewTokenIssuer(service.TokenConfig{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
		Issuer:        cfg.AppName,
	})
	authService := service.NewAuthService(userRepo, tokens, service.NewVerificationSender(events, cfg.VerificationTTL), avatars, validate, service.AuthConfig{
		VerificationTTL: cfg.VerificationTTL,
		AvatarMaxSizeMB: cfg.UploadMaxSizeMB,
	}, logger)
	catalogService := service.NewCatalogService(catalogRepo, redisClient, cfg.CatalogCacheTTL, validate, logger)
	submissionService := service.NewCodeSubmissionService(submissionRepo, userRepo, events, validate, logger)
	runService := service.NewCodeRunService(catalogService, sandbox, validate, logger)
	checkService := service.NewCodeCheckService(catalogService, reviewer, validate, logger)
	notesService := service.NewNotesService(noteRepo, validate, logger)
	tutorService := service.NewTutorService(chatRepo, catalogService, notesService, tutor, validate, logger)
	quizService := service.NewQuizService(quizRepo, catalogService, generator, validate, logger)
	contactService := service.NewContactService(contactRepo, redisClient, service.NewContactDelivery(events), validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxSizeMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSAllowOrigins,
		Debug:        debug,
	})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:           handler.NewAuthHandler(authService, logger, debug),
		CatalogHandler:        handler.NewCatalogHandler(catalogService, logger, debug),
		CodeHandler:           handler.NewCodeHandler(runService, checkService, logger, debug),
		CodeSubmissionHandler: handler.NewCodeSubmissionHandler(submissionService, logger, debug),
		ChatHandler:           handler.NewChatHandler(tutorService, service.NewChatSocketService(tutorService, logger), logger, debug),
		QuizHandler:           handler.NewQuizHandler(quizService, logger, debug),
		NotesHandler:          handler.NewNotesHandler(notesService, logger, debug),
		ContactHandler:        handler.NewContactHandler(contactService, logger, debug),
		HealthProbes:          probes,
		JWTMiddleware:         middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Msg("starting http server")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func pingDatabase(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
