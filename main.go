package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"game-session-system/config"
	"game-session-system/events"
	"game-session-system/handlers"
	"game-session-system/logger"
	"game-session-system/metrics"
	"game-session-system/middleware"
	"game-session-system/models"
	"game-session-system/ratelimit"
	"game-session-system/repository"
	"game-session-system/services"
	"game-session-system/utils"
	"game-session-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const eventSource = "game-session-system"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration:", err)
	}
	if err := cfg.RequireDatabase(); err != nil {
		log.Fatal(err)
	}
	if cfg.GameServiceToken == "" {
		log.Fatal("❌ GAME_SERVICE_TOKEN is not set, service cannot authenticate Gateway")
	}

	zlog := logger.New(cfg.LogLevel, cfg.Environment)
	defer func() { _ = zlog.Sync() }()

	db, err := utils.OpenDatabase(cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("database unavailable", zap.Error(err))
	}
	if err := models.AutoMigrate(db); err != nil {
		zlog.Fatal("failed to migrate database", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var limiter ratelimit.Store = ratelimit.NewMemoryStore()
	if cfg.RateLimitBackend == "redis" {
		redisStore, err := ratelimit.NewRedisStoreFromURL(cfg.RedisURL)
		if err != nil {
			zlog.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisStore.Close()
		limiter = redisStore
	}

	var publisher events.PromotionPublisher = events.NewLogPublisher(zlog)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.TierPromotionTopic, eventSource)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	sessionRepo := repository.NewSessionRepository(db)
	rankingService := services.NewRankingService(services.RankingServiceDeps{
		Sessions:   sessionRepo,
		Rankings:   repository.NewRankingRepository(db),
		Limiter:    limiter,
		Promotions: publisher,
		Metrics:    metrics.NewRankingMetrics(reg),
		Clock:      clock,
		Log:        zlog,
	}, cfg.Ranking)
	lifecycleService := services.NewSessionLifecycleService(sessionRepo, cfg.Lifecycle, zlog)

	var sink workers.ArchiveSink
	if cfg.R2.Bucket != "" {
		uploader, err := utils.NewR2ArchiveUploader(ctx, cfg.R2)
		if err != nil {
			zlog.Fatal("failed to initialize R2 client", zap.Error(err))
		}
		sink = uploader
	}

	scheduler := workers.NewLifecycleScheduler(lifecycleService, sink, clock, cfg.Lifecycle.SweepInterval, zlog)
	if err := scheduler.Start(ctx); err != nil {
		zlog.Fatal("failed to start lifecycle scheduler", zap.Error(err))
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	// Only Gateway requests allowed, /metrics included.
	app.Use(middleware.GatewayAuthMiddleware(cfg.GameServiceToken, zlog))
	app.Use(middleware.UserContextMiddleware(zlog))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	handlers.SetupRankingRoutes(app, rankingService)
	handlers.SetupLifecycleRoutes(app, scheduler)

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			zlog.Error("server error", zap.Error(err))
			stop()
		}
	}()

	zlog.Info("✅ server running",
		zap.String("addr", cfg.ListenAddr),
		zap.Bool("ranking_enabled", cfg.Ranking.Enabled),
		zap.String("rate_limit_backend", cfg.RateLimitBackend),
		zap.Duration("sweep_interval", cfg.Lifecycle.SweepInterval),
	)

	<-ctx.Done()
	zlog.Info("shutting down server")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		zlog.Warn("server shutdown", zap.Error(err))
	}
	if err := scheduler.Shutdown(); err != nil {
		zlog.Warn("scheduler shutdown", zap.Error(err))
	}
}
