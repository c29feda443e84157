package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/seralp/mailcast/internal/config"
	"github.com/seralp/mailcast/internal/emailcheck"
	"github.com/seralp/mailcast/internal/handler"
	"github.com/seralp/mailcast/internal/infra/postgresql"
	"github.com/seralp/mailcast/internal/infra/postgresql/migrations"
	infraredis "github.com/seralp/mailcast/internal/infra/redis"
	"github.com/seralp/mailcast/internal/observability"
	"github.com/seralp/mailcast/internal/provider"
	"github.com/seralp/mailcast/internal/ratelimit"
	"github.com/seralp/mailcast/internal/repository"
	"github.com/seralp/mailcast/internal/service"
	"github.com/seralp/mailcast/internal/transport"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	// Redis is optional. With it, send throttling is shared across
	// instances; without it, each instance paces sends locally.
	var rdb *goredis.Client
	var limiter ratelimit.Limiter
	if cfg.RedisURL != "" {
		rdb, err = infraredis.NewRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal("redis initialization failed", zap.Error(err))
		}
		defer rdb.Close()

		limiter, err = infraredis.NewRateLimiter(rdb, cfg.RateLimitPerSec)
		if err != nil {
			logger.Fatal("rate limiter initialization failed", zap.Error(err))
		}
	} else {
		limiter = ratelimit.NewFixedIntervalLimiter(time.Duration(cfg.SendIntervalMS) * time.Millisecond)
	}

	sender, err := provider.NewResendClient(cfg.ResendBaseURL, cfg.ResendAPIKey)
	if err != nil {
		logger.Fatal("provider initialization failed", zap.Error(err))
	}

	userRepo := repository.NewGormUserRepo(db)
	listRepo := repository.NewGormContactListRepo(db)
	campaignRepo := repository.NewGormCampaignRepo(db)

	metrics := observability.NewMetrics()

	contactListService, err := service.NewContactListService(listRepo, logger)
	if err != nil {
		logger.Fatal("contact list service initialization failed", zap.Error(err))
	}

	campaignService, err := service.NewCampaignService(
		campaignRepo,
		listRepo,
		sender,
		limiter,
		cfg.FromAddress(),
		cfg.EmailFromName,
		logger,
	)
	if err != nil {
		logger.Fatal("campaign service initialization failed", zap.Error(err))
	}
	campaignService.SetMetrics(metrics)

	webhookService, err := service.NewWebhookService(campaignRepo, logger)
	if err != nil {
		logger.Fatal("webhook service initialization failed", zap.Error(err))
	}
	webhookService.SetMetrics(metrics)

	checker := emailcheck.NewChecker()

	app := fiber.New(fiber.Config{
		AppName:      "mailcast",
		ErrorHandler: transport.ErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(observability.CorrelationMiddleware())
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	if err := handler.RegisterWebhookRoutes(app, webhookService); err != nil {
		logger.Fatal("webhook route registration failed", zap.Error(err))
	}

	v1 := app.Group("/v1", handler.APIKeyAuth(userRepo))
	if err := handler.RegisterContactListRoutes(v1, contactListService); err != nil {
		logger.Fatal("contact list route registration failed", zap.Error(err))
	}
	if err := handler.RegisterCampaignRoutes(v1, campaignService); err != nil {
		logger.Fatal("campaign route registration failed", zap.Error(err))
	}
	if err := handler.RegisterEmailCheckRoutes(v1, checker); err != nil {
		logger.Fatal("email check route registration failed", zap.Error(err))
	}

	go func() {
		logger.Info("mailcast api started", zap.Int("port", cfg.APIPort))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.APIPort)); err != nil {
			logger.Fatal("api server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
