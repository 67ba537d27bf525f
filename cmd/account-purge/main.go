// Command account-purge removes ranking rows for accounts deleted longer
// than ACCOUNT_PURGE_GRACE_HOURS ago. One batch per run.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"game-session-system/config"
	"game-session-system/logger"
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

	worker := workers.NewAccountPurgeWorker(db, cfg.Purge, clockwork.NewRealClock(), zlog)
	n, err := worker.RunOnce(ctx)
	if err != nil {
		_ = zlog.Sync()
		os.Exit(1)
	}
	zlog.Info("account purge finished", zap.Int("purged", n))
}
