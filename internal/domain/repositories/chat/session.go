package chat

import (
	"context"
	"time"

	chatModels "jobsage/internal/domain/models/chat"
)

// SessionStore persists conversation containers. Session ids are generated
// client-side and reused on insert, so an optimistic session and its
// persisted row always share the same id.
type SessionStore interface {
	// CreateSession inserts a new session record.
	CreateSession(ctx context.Context, session *chatModels.Session) error

	// GetSession retrieves a session by id.
	GetSession(ctx context.Context, sessionID string) (*chatModels.Session, error)

	// UpdateSessionTitle sets the title and bumps updated_at.
	UpdateSessionTitle(ctx context.Context, sessionID, title string, updatedAt time.Time) error

	// UpdateSessionLastMessage sets the last-message preview and bumps updated_at.
	UpdateSessionLastMessage(ctx context.Context, sessionID, lastMessage string, updatedAt time.Time) error

	// ListSessions returns non-deleted sessions, most recently updated first.
	ListSessions(ctx context.Context) ([]chatModels.Session, error)
}
