// Command lifecycle-sweep runs a single session lifecycle sweep and exits.
// Intended for cron or a Kubernetes CronJob when the in-process scheduler
// is turned off (LIFECYCLE_SWEEP_INTERVAL=0).
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"game-session-system/config"
	"game-session-system/logger"
	"game-session-system/repository"
	"game-session-system/services"
	"game-session-system/utils"
	"game-session-system/workers"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration:", err)
	}
	if err := cfg.RequireDatabase(); err != nil {
		log.Fatal(err)
	}

	zlog := logger.New(cfg.LogLevel, cfg.Environment)
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := utils.OpenDatabase(cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("database unavailable", zap.Error(err))
	}

	var sink workers.ArchiveSink
	if cfg.R2.Bucket != "" {
		uploader, err := utils.NewR2ArchiveUploader(ctx, cfg.R2)
		if err != nil {
			zlog.Fatal("failed to initialize R2 client", zap.Error(err))
		}
		sink = uploader
	}

	svc := services.NewSessionLifecycleService(repository.NewSessionRepository(db), cfg.Lifecycle, zlog)
	runner := workers.NewLifecycleScheduler(svc, sink, clockwork.NewRealClock(), 0, zlog)

	res, err := runner.RunOnce(ctx)
	zlog.Info("lifecycle sweep",
		zap.Int("auto_completed", res.AutoCompletedCount),
		zap.Int("archived", res.ArchivedCompletedCount),
	)
	if err != nil {
		_ = zlog.Sync()
		os.Exit(1)
	}
}
