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
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/moondev/applicant-portal-api/internal/config"
	"github.com/moondev/applicant-portal-api/internal/database"
	"github.com/moondev/applicant-portal-api/internal/handler"
	"github.com/moondev/applicant-portal-api/internal/middleware"
	"github.com/moondev/applicant-portal-api/internal/models"
	"github.com/moondev/applicant-portal-api/internal/repository"
	"github.com/moondev/applicant-portal-api/internal/router"
	"github.com/moondev/applicant-portal-api/internal/service"
	cloud "github.com/moondev/applicant-portal-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Profile{}, &models.Submission{}, &models.Evaluation{}, &models.DeliveryLog{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	profileRepo := repository.NewProfileRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	deliveryLogRepo := repository.NewDeliveryLogRepository(db)

	stream := service.NewEvaluationStream(evaluationRepo, redisClient, natsConn, cfg.EventChannelBase, logger)

	var mailer service.MailDelivery = service.NewLogMailDelivery(logger)
	if cfg.MailEndpoint != "" {
		mailer = service.NewHTTPMailDelivery(cfg.MailEndpoint, cfg.MailBearerToken, logger)
	}

	authService := service.NewAuthService(profileRepo, validate, cfg.JWTSecret, logger)
	submissionService := service.NewSubmissionService(submissionRepo, evaluationRepo, uploader, service.StorageFolders{
		Avatars:    cfg.AvatarFolder,
		SourceCode: cfg.SourceCodeFolder,
	}, validate, cfg.MaxArchiveSizeMB, logger)
	reviewService := service.NewReviewService(submissionRepo, evaluationRepo, deliveryLogRepo, stream, mailer, validate, logger)

	authHandler := handler.NewAuthHandler(authService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, stream, logger)
	reviewHandler := handler.NewReviewHandler(reviewService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    cfg.BodyLimit(),
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       authHandler,
		SubmissionHandler: submissionHandler,
		ReviewHandler:     reviewHandler,
		SessionMiddleware: middleware.Session(cfg.JWTSecret),
	})

	streamCtx, stopStream := context.WithCancel(context.Background())
	defer stopStream()
	stream.Start(streamCtx)

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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
