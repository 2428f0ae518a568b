package chat

import (
	"context"

	chatModels "jobsage/internal/domain/models/chat"
)

// MessageStore persists conversation messages. Message ids are generated
// client-side at send time and reused on insert.
type MessageStore interface {
	// InsertMessage appends a message record.
	InsertMessage(ctx context.Context, msg *chatModels.Message) error

	// ListMessagesBySession returns a session's messages in creation order.
	ListMessagesBySession(ctx context.Context, sessionID string) ([]chatModels.Message, error)
}
