// internal/cache/cache_test.go
package cache

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/flashcard-frenzy/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

var errNotFound = errors.New("not found")

// setupRedis starts a throwaway Redis and returns a connected client.
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	rdb, err := ConnectRedis(ctx, endpoint, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

// memBackend is an in-memory ResultBackend that counts reads.
type memBackend struct {
	mu     sync.Mutex
	byRoom map[string]models.GameResult
	reads  int
}

func newMemBackend() *memBackend {
	return &memBackend{byRoom: make(map[string]models.GameResult)}
}

func (m *memBackend) SaveGameResult(_ context.Context, r models.GameResult) (*models.GameResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byRoom[r.RoomID] = r
	return &r, nil
}

func (m *memBackend) GetGameResults(_ context.Context) ([]models.GameResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.GameResult
	for _, r := range m.byRoom {
		out = append(out, r)
	}
	return out, nil
}

func (m *memBackend) GetGameResultByRoomID(_ context.Context, roomID string) (*models.GameResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	r, ok := m.byRoom[roomID]
	if !ok {
		return nil, errNotFound
	}
	return &r, nil
}

func (m *memBackend) readCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestActionQueue(t *testing.T) {
	rdb := setupRedis(t)
	q := NewActionQueue(rdb, "")
	ctx := context.Background()
	session := uuid.New()

	for i := 1; i <= 3; i++ {
		require.NoError(t, q.PublishRoomAction(ctx, models.RoomAction{
			SessionID:     session,
			RoomID:        "abc123",
			ActionIndex:   i,
			ActionType:    "answer_submitted",
			ActionPayload: map[string]interface{}{"answer": "Paris"},
			Timestamp:     time.Now().UnixMilli(),
		}))
	}
	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	for i := 1; i <= 3; i++ {
		rec, err := q.Pop(ctx, time.Second)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, i, rec.ActionIndex, "actions come out in publish order")
		assert.Equal(t, session, rec.SessionID)
		assert.Equal(t, "Paris", rec.ActionPayload["answer"])
	}

	rec, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	assert.Nil(t, rec, "an empty queue times out with no record")
}

func TestCachedResults(t *testing.T) {
	rdb := setupRedis(t)
	backend := newMemBackend()
	cached := NewCachedResults(backend, rdb, time.Minute, quietLogger())
	ctx := context.Background()

	in := models.GameResult{
		ID:      uuid.New(),
		RoomID:  "abc123",
		Winner:  &models.Player{ID: "c1", Username: "Alice", Score: 60},
		Players: []models.Player{{ID: "c1", Username: "Alice", Score: 60}, {ID: "c2", Username: "Bob", Score: 0}},
	}
	_, err := cached.SaveGameResult(ctx, in)
	require.NoError(t, err)

	got, err := cached.GetGameResultByRoomID(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, in.ID, got.ID)
	assert.Equal(t, "Alice", got.Winner.Username)
	assert.Equal(t, 0, backend.readCount(), "saved results are served from the cache")

	ttl, err := rdb.TTL(ctx, "result:abc123").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	// a miss reads through and populates the cache
	other := models.GameResult{ID: uuid.New(), RoomID: "zzz999"}
	_, err = backend.SaveGameResult(ctx, other)
	require.NoError(t, err)
	_, err = cached.GetGameResultByRoomID(ctx, "zzz999")
	require.NoError(t, err)
	_, err = cached.GetGameResultByRoomID(ctx, "zzz999")
	require.NoError(t, err)
	assert.Equal(t, 1, backend.readCount())

	_, err = cached.GetGameResultByRoomID(ctx, "nope00")
	assert.ErrorIs(t, err, errNotFound)
	exists, err := rdb.Exists(ctx, "result:nope00").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), exists, "misses are not cached")
}

func TestCachedResultsFallsBackWhenRedisIsDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()

	backend := newMemBackend()
	cached := NewCachedResults(backend, rdb, time.Minute, quietLogger())
	ctx := context.Background()

	in := models.GameResult{ID: uuid.New(), RoomID: "abc123"}
	stored, err := cached.SaveGameResult(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, in.ID, stored.ID)

	got, err := cached.GetGameResultByRoomID(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, in.ID, got.ID)

	_, err = ConnectRedis(ctx, "127.0.0.1:1", 0)
	assert.Error(t, err)
}
