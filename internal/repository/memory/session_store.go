// Package memory provides in-memory store implementations. They back tests
// and offline use; the postgres package is the production counterpart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"jobsage/internal/domain"
	chatModels "jobsage/internal/domain/models/chat"
)

// SessionStore is a mutex-guarded in-memory session store.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*chatModels.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*chatModels.Session),
	}
}

func (s *SessionStore) CreateSession(_ context.Context, session *chatModels.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; exists {
		return fmt.Errorf("%w: session %s", domain.ErrConflict, session.ID)
	}

	clone := *session
	s.sessions[session.ID] = &clone
	return nil
}

func (s *SessionStore) GetSession(_ context.Context, sessionID string) (*chatModels.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.IsDeleted {
		return nil, fmt.Errorf("%w: session %s", domain.ErrNotFound, sessionID)
	}

	clone := *sess
	return &clone, nil
}

func (s *SessionStore) UpdateSessionTitle(_ context.Context, sessionID, title string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.IsDeleted {
		return fmt.Errorf("%w: session %s", domain.ErrNotFound, sessionID)
	}

	sess.Title = title
	sess.UpdatedAt = updatedAt
	return nil
}

func (s *SessionStore) UpdateSessionLastMessage(_ context.Context, sessionID, lastMessage string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.IsDeleted {
		return fmt.Errorf("%w: session %s", domain.ErrNotFound, sessionID)
	}

	sess.LastMessage = lastMessage
	sess.UpdatedAt = updatedAt
	return nil
}

func (s *SessionStore) ListSessions(_ context.Context) ([]chatModels.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]chatModels.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if sess.IsDeleted {
			continue
		}
		out = append(out, *sess)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}
