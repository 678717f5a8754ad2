// cmd/historian/main.go drains the room action queue from Redis into Postgres.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/flashcard-frenzy/internal/cache"
	"github.com/jason-s-yu/flashcard-frenzy/internal/config"
	"github.com/jason-s-yu/flashcard-frenzy/internal/database"
	"github.com/jason-s-yu/flashcard-frenzy/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(cfg.PostgresURL(), logger); err != nil {
		logger.Fatalf("migrations failed: %v", err)
	}
	pool, err := database.ConnectDB(ctx, cfg.PostgresURL())
	if err != nil {
		logger.Fatalf("database unavailable: %v", err)
	}
	defer pool.Close()

	redisAddr := cfg.RedisAddr
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	rdb, err := cache.ConnectRedis(ctx, redisAddr, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("redis unavailable: %v", err)
	}
	defer rdb.Close()

	svc := historian.New(
		cache.NewActionQueue(rdb, cfg.HistorianQueueName),
		database.NewActionStore(pool),
		logger,
	)
	svc.BatchSize = cfg.HistorianBatchSize
	svc.FlushDelay = cfg.HistorianFlush

	svc.Run(ctx)
	logger.Info("Historian shutdown complete.")
}
