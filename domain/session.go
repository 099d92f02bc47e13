package domain

import "time"

// Role tags one side of the conversation.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is a single role-tagged unit of conversation history.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Session holds the ordered turn history for one conversation.
// Turns alternate starting with user and the list only grows.
type Session struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	LastUsed  time.Time `json:"last_used"`
	Turns     []Turn    `json:"turns"`
}
