// internal/database/results.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/flashcard-frenzy/internal/models"
)

// ErrResultNotFound is returned when no stored game matches the requested room.
var ErrResultNotFound = errors.New("game result not found")

// ResultStore is the Postgres-backed, append-only store of finished games.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

const selectResultColumns = `SELECT id, room_id, winner, players, deck, created_at FROM game_results`

// SaveGameResult inserts result and returns the row as stored. Saving the same result id
// twice leaves the first row untouched, so a retried save never duplicates a game.
func (s *ResultStore) SaveGameResult(ctx context.Context, result models.GameResult) (*models.GameResult, error) {
	if result.ID == uuid.Nil {
		result.ID = uuid.New()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}

	var winner interface{}
	if result.Winner != nil {
		b, err := json.Marshal(result.Winner)
		if err != nil {
			return nil, fmt.Errorf("marshal winner: %w", err)
		}
		winner = b
	}
	players, err := json.Marshal(nonNilPlayers(result.Players))
	if err != nil {
		return nil, fmt.Errorf("marshal players: %w", err)
	}
	deck, err := json.Marshal(nonNilDeck(result.Deck))
	if err != nil {
		return nil, fmt.Errorf("marshal deck: %w", err)
	}

	var stored *models.GameResult
	err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO game_results (id, room_id, winner, players, deck, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO NOTHING
		`
		if _, e := tx.Exec(ctx, q, result.ID, result.RoomID, winner, players, deck, result.CreatedAt); e != nil {
			return e
		}
		row, e := scanResult(tx.QueryRow(ctx, selectResultColumns+` WHERE id = $1`, result.ID))
		if e != nil {
			return e
		}
		stored = row
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save game result for room %s: %w", result.RoomID, err)
	}
	return stored, nil
}

// GetGameResults lists every stored game, newest first.
func (s *ResultStore) GetGameResults(ctx context.Context) ([]models.GameResult, error) {
	rows, err := s.pool.Query(ctx, selectResultColumns+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query game results: %w", err)
	}
	defer rows.Close()

	results := []models.GameResult{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate game results: %w", err)
	}
	return results, nil
}

// GetGameResultByRoomID returns the most recent game played in roomID. Room ids are
// reused once a room is gone, so older games under the same id are shadowed.
func (s *ResultStore) GetGameResultByRoomID(ctx context.Context, roomID string) (*models.GameResult, error) {
	q := selectResultColumns + ` WHERE room_id = $1 ORDER BY created_at DESC LIMIT 1`
	r, err := scanResult(s.pool.QueryRow(ctx, q, roomID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("get game result for room %s: %w", roomID, err)
	}
	return r, nil
}

func scanResult(row pgx.Row) (*models.GameResult, error) {
	var (
		r                     models.GameResult
		winner, players, deck []byte
	)
	if err := row.Scan(&r.ID, &r.RoomID, &winner, &players, &deck, &r.CreatedAt); err != nil {
		return nil, err
	}
	if len(winner) > 0 {
		if err := json.Unmarshal(winner, &r.Winner); err != nil {
			return nil, fmt.Errorf("decode winner: %w", err)
		}
	}
	if err := json.Unmarshal(players, &r.Players); err != nil {
		return nil, fmt.Errorf("decode players: %w", err)
	}
	if err := json.Unmarshal(deck, &r.Deck); err != nil {
		return nil, fmt.Errorf("decode deck: %w", err)
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}

func nonNilPlayers(p []models.Player) []models.Player {
	if p == nil {
		return []models.Player{}
	}
	return p
}

func nonNilDeck(d []models.Card) []models.Card {
	if d == nil {
		return []models.Card{}
	}
	return d
}
