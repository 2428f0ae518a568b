// Package chat implements the chat store interfaces on PostgreSQL.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"jobsage/internal/domain"
	chatModels "jobsage/internal/domain/models/chat"
	chatRepo "jobsage/internal/domain/repositories/chat"
	"jobsage/internal/repository/postgres"
)

// PostgresSessionStore implements the SessionStore interface using PostgreSQL
type PostgresSessionStore struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewSessionStore creates a new PostgresSessionStore
func NewSessionStore(config *postgres.RepositoryConfig) chatRepo.SessionStore {
	return &PostgresSessionStore{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// CreateSession inserts a session with its client-generated id.
func (s *PostgresSessionStore) CreateSession(ctx context.Context, session *chatModels.Session) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, title, last_message, created_at, updated_at, is_archived, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, s.tables.Sessions)

	_, err := s.pool.Exec(ctx, query,
		session.ID,
		session.Title,
		session.LastMessage,
		session.CreatedAt,
		session.UpdatedAt,
		session.IsArchived,
		session.IsDeleted,
	)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return fmt.Errorf("session %s: %w", session.ID, domain.ErrConflict)
		}
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

// GetSession retrieves a session by ID
func (s *PostgresSessionStore) GetSession(ctx context.Context, sessionID string) (*chatModels.Session, error) {
	query := fmt.Sprintf(`
		SELECT id, title, last_message, created_at, updated_at, is_archived, is_deleted
		FROM %s
		WHERE id = $1 AND is_deleted = FALSE
	`, s.tables.Sessions)

	var session chatModels.Session
	err := s.pool.QueryRow(ctx, query, sessionID).Scan(
		&session.ID,
		&session.Title,
		&session.LastMessage,
		&session.CreatedAt,
		&session.UpdatedAt,
		&session.IsArchived,
		&session.IsDeleted,
	)

	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	return &session, nil
}

// UpdateSessionTitle sets the title and bumps updated_at.
func (s *PostgresSessionStore) UpdateSessionTitle(ctx context.Context, sessionID, title string, updatedAt time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, updated_at = $2
		WHERE id = $3 AND is_deleted = FALSE
	`, s.tables.Sessions)

	result, err := s.pool.Exec(ctx, query, title, updatedAt, sessionID)
	if err != nil {
		return fmt.Errorf("update session title: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}

	return nil
}

// UpdateSessionLastMessage sets the last-message preview and bumps updated_at.
func (s *PostgresSessionStore) UpdateSessionLastMessage(ctx context.Context, sessionID, lastMessage string, updatedAt time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET last_message = $1, updated_at = $2
		WHERE id = $3 AND is_deleted = FALSE
	`, s.tables.Sessions)

	result, err := s.pool.Exec(ctx, query, lastMessage, updatedAt, sessionID)
	if err != nil {
		return fmt.Errorf("update session last message: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}

	return nil
}

// ListSessions retrieves all non-deleted sessions, most recently updated first
func (s *PostgresSessionStore) ListSessions(ctx context.Context) ([]chatModels.Session, error) {
	query := fmt.Sprintf(`
		SELECT id, title, last_message, created_at, updated_at, is_archived, is_deleted
		FROM %s
		WHERE is_deleted = FALSE
		ORDER BY updated_at DESC
	`, s.tables.Sessions)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []chatModels.Session
	for rows.Next() {
		var session chatModels.Session
		err := rows.Scan(
			&session.ID,
			&session.Title,
			&session.LastMessage,
			&session.CreatedAt,
			&session.UpdatedAt,
			&session.IsArchived,
			&session.IsDeleted,
		)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	// Return empty slice instead of nil
	if sessions == nil {
		sessions = []chatModels.Session{}
	}

	return sessions, nil
}
