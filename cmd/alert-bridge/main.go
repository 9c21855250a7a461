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
	"github.com/session-audit/backend/internal/services"
	"go.uber.org/zap"
)

// Alert bridge subscribes to command events in Redis and forwards insecure
// command alerts to ALERT_WEBHOOK_URL.

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	if cfg.AlertWebhookURL == "" {
		log.Fatal("ALERT_WEBHOOK_URL is required for alert-bridge")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	subscriber := events.NewRedisSubscriber(rdb, log)
	notifier := services.NewAlertNotifier(cfg.AlertWebhookURL, log)

	err = subscriber.Subscribe(ctx, events.StreamCommand, func(event events.Event) {
		if event.Type != events.EventCommandAlert {
			return
		}
		sendCtx, sendCancel := context.WithTimeout(ctx, 20*time.Second)
		defer sendCancel()

		log.Info("forwarding command alert", zap.String("tenant_id", event.TenantID))
		if err := notifier.Notify(sendCtx, event); err != nil {
			log.Warn("failed to forward command alert", zap.String("tenant_id", event.TenantID), zap.Error(err))
		}
	})
	if err != nil {
		log.Fatal("failed to subscribe", zap.String("stream", events.StreamCommand), zap.Error(err))
	}

	log.Info("alert-bridge started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down alert-bridge")
	cancel()
}
