package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/session-audit/backend/internal/config"
	"github.com/session-audit/backend/internal/db"
	"github.com/session-audit/backend/internal/events"
	"github.com/session-audit/backend/internal/formatter"
	"github.com/session-audit/backend/internal/repositories"
	"github.com/session-audit/backend/internal/services"
	"go.uber.org/zap"
)

// Worker purges captured commands older than COMMAND_RETENTION_DAYS.

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	commandService := services.NewCommandService(
		formatter.New(cfg.Location()),
		repositories.NewCommandRepo(pool),
		repositories.NewAuditRepo(pool),
		events.NewRedisPublisher(rdb, log),
		log,
	)

	interval := cfg.RetentionInterval
	if interval <= 0 {
		interval = time.Hour
	}

	log.Info("worker started",
		zap.Int("retention_days", cfg.CommandRetentionDays),
		zap.Duration("interval", interval),
	)

	runRetention(ctx, commandService, cfg.CommandRetentionDays, log)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			runRetention(ctx, commandService, cfg.CommandRetentionDays, log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

func runRetention(ctx context.Context, commandService *services.CommandService, days int, log *zap.Logger) {
	if _, err := commandService.PurgeExpired(ctx, days, time.Now()); err != nil {
		log.Error("failed to purge expired commands", zap.Error(err))
	}
}
