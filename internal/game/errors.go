// internal/game/errors.go
package game

import (
	"errors"
	"fmt"
)

var (
	// ErrRoomNotFound is returned when no live room has the requested id.
	ErrRoomNotFound = errors.New("room does not exist")
	// ErrRoomFull is returned when a room already has MaxPlayers or has left the lobby.
	ErrRoomFull = errors.New("room is full")
	// ErrUnauthorized is returned when a start is requested by a non-host, with the
	// wrong player count, or outside the lobby.
	ErrUnauthorized = errors.New("only the host can start a full room")
	// ErrAlreadyInRoom is returned when a connection that already holds a seat tries to take another.
	ErrAlreadyInRoom = errors.New("connection is already in a room")
	// ErrAlreadyAnswered is returned when a player answers the same card twice.
	ErrAlreadyAnswered = errors.New("answer already submitted for this card")
)

// PersistenceError reports that a finished game could not be stored.
type PersistenceError struct {
	RoomID   string
	Attempts int
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist result for room %s failed after %d attempt(s): %v", e.RoomID, e.Attempts, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
