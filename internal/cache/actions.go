// internal/cache/actions.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/flashcard-frenzy/internal/models"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list room actions are pushed to.
const DefaultQueueName = "flashcard_room_actions"

// ActionQueue is a Redis list used as a FIFO between the game server and the historian.
type ActionQueue struct {
	rdb   *redis.Client
	queue string
}

func NewActionQueue(rdb *redis.Client, queue string) *ActionQueue {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &ActionQueue{rdb: rdb, queue: queue}
}

// PublishRoomAction serializes rec to JSON and appends it to the queue.
func (q *ActionQueue) PublishRoomAction(ctx context.Context, rec models.RoomAction) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal RoomAction: %w", err)
	}
	if err := q.rdb.RPush(ctx, q.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", q.queue, err)
	}
	return nil
}

// Pop blocks up to timeout for the next action. It returns nil, nil when the wait times out.
func (q *ActionQueue) Pop(ctx context.Context, timeout time.Duration) (*models.RoomAction, error) {
	res, err := q.rdb.BLPop(ctx, timeout, q.queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	// res[0] is the queue name and res[1] the payload
	if len(res) < 2 {
		return nil, nil
	}
	var rec models.RoomAction
	if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
		return nil, fmt.Errorf("invalid room action record: %w", err)
	}
	return &rec, nil
}

// Len reports how many actions are waiting.
func (q *ActionQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.queue).Result()
}
