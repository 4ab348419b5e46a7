// Package session persists conversation sessions and their messages.
//
// Sessions are created implicitly on first reference and never deleted by
// this package. Messages are immutable once written; within a session
// they are totally ordered by (created_at, id).
package session

import (
	"errors"
	"time"
)

// Message roles. The set is closed; anything else is rejected before
// persistence.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ErrInvalidRole is returned when a message role is outside the closed
// user/assistant/system set.
var ErrInvalidRole = errors.New("invalid message role")

// ValidRole reports whether role is in the closed role set.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Session is a persistent conversation identity.
type Session struct {
	ID           string    `json:"sessionId"`
	UserID       string    `json:"userId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActiveAt time.Time `json:"lastActiveAt"`
}

// Message is one immutable conversational turn.
type Message struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"sessionId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
