// internal/models/game_result.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// GameResult is the durable record of one finished room.
// Winner is nil when the game ended in a draw.
type GameResult struct {
	ID        uuid.UUID `json:"id"`
	RoomID    string    `json:"roomId"`
	Winner    *Player   `json:"winner"`
	Players   []Player  `json:"players"`
	Deck      []Card    `json:"deck"`
	CreatedAt time.Time `json:"createdAt"`
}
