package memory

import (
	"context"
	"sync"

	chatModels "jobsage/internal/domain/models/chat"
)

// MessageStore is a mutex-guarded in-memory message store. Messages are
// kept per session in insertion order, which matches creation order for
// the append-only chat history.
type MessageStore struct {
	mu       sync.RWMutex
	messages map[string][]*chatModels.Message
}

func NewMessageStore() *MessageStore {
	return &MessageStore{
		messages: make(map[string][]*chatModels.Message),
	}
}

func (s *MessageStore) InsertMessage(_ context.Context, msg *chatModels.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *msg
	s.messages[msg.SessionID] = append(s.messages[msg.SessionID], &clone)
	return nil
}

func (s *MessageStore) ListMessagesBySession(_ context.Context, sessionID string) ([]chatModels.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[sessionID]
	out := make([]chatModels.Message, len(msgs))
	for i, m := range msgs {
		out[i] = *m
	}
	return out, nil
}
