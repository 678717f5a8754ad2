// internal/game/room_store.go
package game

import (
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/jason-s-yu/flashcard-frenzy/internal/models"
)

const roomIDLength = 6

// RoomStore owns every live room and the connection -> room membership index.
// The store lock only guards the maps; per-room state is guarded by Room.Mu.
// Lock order is Room.Mu before the store lock, and the store never takes a room lock.
type RoomStore struct {
	mu        sync.Mutex
	rooms     map[string]*Room
	connRooms map[string]string // connID -> roomID

	// newID generates candidate room ids. Called with mu held.
	newID func() string
}

// NewRoomStore returns an empty in-memory store generating 6-character base-36 room ids.
func NewRoomStore() *RoomStore {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &RoomStore{
		rooms:     make(map[string]*Room),
		connRooms: make(map[string]string),
		newID: func() string {
			return randomRoomID(r, roomIDLength)
		},
	}
}

// randomRoomID builds a lowercase base-36 token of n characters.
func randomRoomID(r *rand.Rand, n int) string {
	b := make([]byte, 0, n)
	for len(b) < n {
		b = strconv.AppendInt(b, int64(r.Intn(36)), 36)
	}
	return string(b)
}

// Create builds a room seated with host and registers it under an id that is not
// held by any live room. Candidates colliding with a live room are regenerated.
// The room is returned with Mu held so the caller can announce it before anyone
// else observes it; the caller must unlock.
func (s *RoomStore) Create(host models.Player, deck []models.Card) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomID := s.newID()
	for {
		if _, exists := s.rooms[roomID]; !exists {
			break
		}
		roomID = s.newID()
	}

	room := newRoom(roomID, host, deck)
	room.Mu.Lock()
	s.rooms[roomID] = room
	s.connRooms[host.ID] = roomID
	return room
}

// Get retrieves a live room if it exists.
func (s *RoomStore) Get(roomID string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	return r, ok
}

// Delete evicts a room and clears the membership of every connection seated in it.
func (s *RoomStore) Delete(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
	for connID, rid := range s.connRooms {
		if rid == roomID {
			delete(s.connRooms, connID)
		}
	}
}

// Bind records that connID is seated in roomID.
func (s *RoomStore) Bind(connID, roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connRooms[connID] = roomID
}

// Unbind clears the membership of connID.
func (s *RoomStore) Unbind(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.connRooms, connID)
}

// RoomOf returns the id of the room connID is seated in.
func (s *RoomStore) RoomOf(connID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	roomID, ok := s.connRooms[connID]
	return roomID, ok
}

// Len returns the number of live rooms.
func (s *RoomStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// Rooms returns a copy of the live rooms, for shutdown and debugging.
func (s *RoomStore) Rooms() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}
