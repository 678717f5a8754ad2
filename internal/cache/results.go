// internal/cache/results.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jason-s-yu/flashcard-frenzy/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const resultKeyPrefix = "result:"

// ResultBackend is the durable store the cache sits in front of.
type ResultBackend interface {
	SaveGameResult(ctx context.Context, result models.GameResult) (*models.GameResult, error)
	GetGameResults(ctx context.Context) ([]models.GameResult, error)
	GetGameResultByRoomID(ctx context.Context, roomID string) (*models.GameResult, error)
}

// CachedResults is a read-through cache of the latest result per room.
// Redis errors are logged and the backend answers instead.
type CachedResults struct {
	backend ResultBackend
	rdb     *redis.Client
	ttl     time.Duration
	logger  *logrus.Logger
}

func NewCachedResults(backend ResultBackend, rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) *CachedResults {
	return &CachedResults{backend: backend, rdb: rdb, ttl: ttl, logger: logger}
}

func resultKey(roomID string) string {
	return resultKeyPrefix + roomID
}

// SaveGameResult writes through to the backend, then caches the stored row.
func (c *CachedResults) SaveGameResult(ctx context.Context, result models.GameResult) (*models.GameResult, error) {
	stored, err := c.backend.SaveGameResult(ctx, result)
	if err != nil {
		return nil, err
	}
	c.put(ctx, stored)
	return stored, nil
}

// GetGameResults is never cached; the listing changes with every finished game.
func (c *CachedResults) GetGameResults(ctx context.Context) ([]models.GameResult, error) {
	return c.backend.GetGameResults(ctx)
}

func (c *CachedResults) GetGameResultByRoomID(ctx context.Context, roomID string) (*models.GameResult, error) {
	data, err := c.rdb.Get(ctx, resultKey(roomID)).Bytes()
	switch {
	case err == nil:
		var r models.GameResult
		if jerr := json.Unmarshal(data, &r); jerr == nil {
			return &r, nil
		}
		c.logger.WithField("room", roomID).Warn("Discarding undecodable cached result")
	case !errors.Is(err, redis.Nil):
		c.logger.WithError(err).WithField("room", roomID).Warn("Result cache read failed")
	}

	r, err := c.backend.GetGameResultByRoomID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	c.put(ctx, r)
	return r, nil
}

func (c *CachedResults) put(ctx context.Context, r *models.GameResult) {
	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, resultKey(r.RoomID), data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("room", r.RoomID).Warn("Result cache write failed")
	}
}
