package models

// Player is one seat in a room. ID is the identity of the owning connection and
// is never reused across rooms.
type Player struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}
