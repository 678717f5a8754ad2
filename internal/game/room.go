// internal/game/room.go
package game

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/flashcard-frenzy/internal/models"
)

// RoomStatus is the coarse state of a room's lifecycle.
type RoomStatus string

const (
	StatusLobby      RoomStatus = "LOBBY"
	StatusInProgress RoomStatus = "IN_PROGRESS"
	StatusFinished   RoomStatus = "FINISHED"
)

// Room holds the entire state for a single two-player session in memory.
// All fields are guarded by Mu.
type Room struct {
	RoomID           string
	SessionID        uuid.UUID // unique per lifetime; room ids may be reused after deletion
	Players          []*models.Player
	Deck             []models.Card
	CurrentCardIndex int
	GameStarted      bool
	GameOver         bool

	// answered tracks which players have answered the current card.
	answered map[string]bool
	// advancePending is set by the first accepted answer for a card.
	advancePending bool
	advanceTimer   *time.Timer

	// removed is set once the room has been evicted from the store.
	removed     bool
	actionIndex int

	Mu sync.Mutex
}

// RoomState is the snapshot broadcast to clients in update-game-state and game-over.
type RoomState struct {
	RoomID           string          `json:"roomId"`
	Players          []models.Player `json:"players"`
	Deck             []models.Card   `json:"deck"`
	CurrentCardIndex int             `json:"currentCardIndex"`
	GameStarted      bool            `json:"gameStarted"`
	GameOver         bool            `json:"gameOver"`
}

func newRoom(roomID string, host models.Player, deck []models.Card) *Room {
	hostCopy := host
	return &Room{
		RoomID:    roomID,
		SessionID: uuid.New(),
		Players:   []*models.Player{&hostCopy},
		Deck:      deck,
		answered:  make(map[string]bool),
	}
}

// Status derives the lifecycle state from the monotonic flags.
// Assumes lock is held.
func (r *Room) Status() RoomStatus {
	switch {
	case r.GameOver:
		return StatusFinished
	case r.GameStarted:
		return StatusInProgress
	default:
		return StatusLobby
	}
}

// Snapshot copies the room into a RoomState safe to hand to other goroutines.
// Assumes lock is held.
func (r *Room) Snapshot() RoomState {
	state := RoomState{
		RoomID:           r.RoomID,
		Players:          r.playersCopy(),
		Deck:             make([]models.Card, len(r.Deck)),
		CurrentCardIndex: r.CurrentCardIndex,
		GameStarted:      r.GameStarted,
		GameOver:         r.GameOver,
	}
	copy(state.Deck, r.Deck)
	return state
}

// Removed reports whether the room has been evicted from the store.
func (r *Room) Removed() bool {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.removed
}

// playersCopy returns the roster by value. Assumes lock is held.
func (r *Room) playersCopy() []models.Player {
	players := make([]models.Player, len(r.Players))
	for i, p := range r.Players {
		players[i] = *p
	}
	return players
}

// getPlayerByID finds a seated player. Assumes lock is held.
func (r *Room) getPlayerByID(connID string) *models.Player {
	for _, p := range r.Players {
		if p.ID == connID {
			return p
		}
	}
	return nil
}

// isHost reports whether connID holds the first seat. Assumes lock is held.
func (r *Room) isHost(connID string) bool {
	return len(r.Players) > 0 && r.Players[0].ID == connID
}

// removePlayer drops a seat, preserving join order for the rest. Assumes lock is held.
func (r *Room) removePlayer(connID string) bool {
	for i, p := range r.Players {
		if p.ID == connID {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			delete(r.answered, connID)
			return true
		}
	}
	return false
}

// currentCard returns the card in play. Assumes lock is held.
func (r *Room) currentCard() (models.Card, bool) {
	if r.CurrentCardIndex < 0 || r.CurrentCardIndex >= len(r.Deck) {
		return models.Card{}, false
	}
	return r.Deck[r.CurrentCardIndex], true
}

// isLastCard reports whether the current card is the final one. Assumes lock is held.
func (r *Room) isLastCard() bool {
	return r.CurrentCardIndex >= len(r.Deck)-1
}

// stopAdvanceTimer cancels a pending card advance. Assumes lock is held.
func (r *Room) stopAdvanceTimer() {
	if r.advanceTimer != nil {
		r.advanceTimer.Stop()
		r.advanceTimer = nil
	}
}
