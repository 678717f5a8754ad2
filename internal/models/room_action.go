package models

import "github.com/google/uuid"

// RoomAction captures one state transition of a live room for the historian.
// SessionID distinguishes two lifetimes of a reused room id.
type RoomAction struct {
	SessionID     uuid.UUID              `json:"session_id"`
	RoomID        string                 `json:"room_id"`
	ActionIndex   int                    `json:"action_index"`
	ActorConnID   string                 `json:"actor_conn_id"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"`
}
