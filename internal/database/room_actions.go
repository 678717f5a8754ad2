// internal/database/room_actions.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/flashcard-frenzy/internal/models"
)

// ActionStore persists the room action log written by the historian.
type ActionStore struct {
	pool *pgxpool.Pool
}

func NewActionStore(pool *pgxpool.Pool) *ActionStore {
	return &ActionStore{pool: pool}
}

// InsertRoomActions writes a batch of room actions in a single transaction.
// Records already stored under the same (session, index) are skipped.
func (s *ActionStore) InsertRoomActions(ctx context.Context, recs []models.RoomAction) error {
	if len(recs) == 0 {
		return nil
	}
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO room_actions (
				session_id, action_index, room_id, actor_conn_id, action_type, action_payload, occurred_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (session_id, action_index) DO NOTHING
		`
		batch := &pgx.Batch{}
		for _, rec := range recs {
			payload := rec.ActionPayload
			if payload == nil {
				payload = map[string]interface{}{}
			}
			js, err := json.Marshal(payload)
			if err != nil {
				return fmt.Errorf("marshal payload for action %d: %w", rec.ActionIndex, err)
			}
			batch.Queue(q,
				rec.SessionID, rec.ActionIndex, rec.RoomID, rec.ActorConnID, rec.ActionType, js,
				time.UnixMilli(rec.Timestamp).UTC(),
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

// GetRoomActions returns the recorded actions of every session played under roomID, in order.
func (s *ActionStore) GetRoomActions(ctx context.Context, roomID string) ([]models.RoomAction, error) {
	q := `
		SELECT session_id, action_index, room_id, actor_conn_id, action_type, action_payload, occurred_at
		FROM room_actions
		WHERE room_id = $1
		ORDER BY occurred_at, session_id, action_index
	`
	rows, err := s.pool.Query(ctx, q, roomID)
	if err != nil {
		return nil, fmt.Errorf("query room actions: %w", err)
	}
	defer rows.Close()

	var out []models.RoomAction
	for rows.Next() {
		var (
			rec        models.RoomAction
			payload    []byte
			occurredAt time.Time
		)
		if err := rows.Scan(&rec.SessionID, &rec.ActionIndex, &rec.RoomID, &rec.ActorConnID, &rec.ActionType, &payload, &occurredAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &rec.ActionPayload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		rec.Timestamp = occurredAt.UnixMilli()
		out = append(out, rec)
	}
	return out, rows.Err()
}
