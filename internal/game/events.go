// internal/game/events.go
package game

import (
	"github.com/jason-s-yu/flashcard-frenzy/internal/models"
)

// GameEventType names an outbound event. The values are the wire names clients listen for.
type GameEventType string

const (
	EventRoomCreated     GameEventType = "room-created"      // creator only, payload is the room id
	EventUpdateGameState GameEventType = "update-game-state" // full RoomState
	EventGameStarted     GameEventType = "game-started"      // signal only
	EventAnswerResult    GameEventType = "answer-result"     // AnswerResult
	EventGameOver        GameEventType = "game-over"         // GameOverPayload
	EventError           GameEventType = "error"             // originating connection only, payload is a message
	EventPlayerLeft      GameEventType = "player-left"       // signal only
)

// GameEvent is the envelope written to a connection.
type GameEvent struct {
	Type    GameEventType `json:"type"`
	Payload interface{}   `json:"payload,omitempty"`
}

// AnswerResult reveals the outcome of one submission together with the correct answer.
type AnswerResult struct {
	PlayerID      string `json:"playerId"`
	Username      string `json:"username"`
	Answer        string `json:"answer"`
	IsCorrect     bool   `json:"isCorrect"`
	CorrectAnswer string `json:"correctAnswer"`
}

// GameOverPayload carries the winner (nil on a draw) and the room's final state.
type GameOverPayload struct {
	RoomID     string         `json:"roomId"`
	Winner     *models.Player `json:"winner"`
	FinalState RoomState      `json:"finalState"`
}

// Notifier delivers events to a single connection. Implementations must not block;
// the coordinator calls Notify while holding a room lock so that a room's events
// reach every member in the order they were produced.
type Notifier interface {
	Notify(connID string, ev GameEvent)
}
