package chat

import (
	"time"
)

// Session represents a persisted conversation container.
// Title and LastMessage are cached display fields updated opportunistically;
// the store holds the authoritative state.
type Session struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	LastMessage string    `json:"last_message,omitempty" db:"last_message"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
	IsArchived  bool      `json:"is_archived" db:"is_archived"`
	IsDeleted   bool      `json:"is_deleted" db:"is_deleted"`
}
