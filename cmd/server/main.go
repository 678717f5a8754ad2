// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/flashcard-frenzy/internal/cache"
	"github.com/jason-s-yu/flashcard-frenzy/internal/config"
	"github.com/jason-s-yu/flashcard-frenzy/internal/database"
	"github.com/jason-s-yu/flashcard-frenzy/internal/game"
	"github.com/jason-s-yu/flashcard-frenzy/internal/handlers"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warnf("Unknown LOG_LEVEL %q, using debug", cfg.LogLevel)
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

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
	logger.Infof("Connected to database at %s:%s/%s", cfg.PGHost, cfg.PGPort, cfg.PGDatabase)

	var results cache.ResultBackend = database.NewResultStore(pool)
	var actions *cache.ActionQueue
	if cfg.RedisAddr != "" {
		rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, room action log and result cache disabled")
		} else {
			defer rdb.Close()
			results = cache.NewCachedResults(results, rdb, cfg.ResultCacheTTL, logger)
			actions = cache.NewActionQueue(rdb, cfg.HistorianQueueName)
		}
	}

	coord := game.NewCoordinator(game.NewRoomStore(), results, logger)
	coord.RevealDelay = cfg.AnswerReveal
	coord.PersistAttempts = cfg.PersistAttempts
	if actions != nil {
		coord.Actions = actions
	}
	gw := handlers.NewGateway(coord, logger)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handlers.NewRouter(logger, gw, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("Running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server exited: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP shutdown incomplete")
	}
	gw.CloseAll()
	if err := coord.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Pending game results may not have been saved")
	}
	logger.Info("Shutdown complete")
}
