package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"jobsage/internal/domain"
	chatModels "jobsage/internal/domain/models/chat"
	chatRepo "jobsage/internal/domain/repositories/chat"
	"jobsage/internal/repository/postgres"
)

// PostgresMessageStore implements the MessageStore interface using PostgreSQL
type PostgresMessageStore struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewMessageStore creates a new PostgresMessageStore
func NewMessageStore(config *postgres.RepositoryConfig) chatRepo.MessageStore {
	return &PostgresMessageStore{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// InsertMessage appends a message with its client-generated id.
func (s *PostgresMessageStore) InsertMessage(ctx context.Context, msg *chatModels.Message) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, session_id, role, content, created_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.tables.Messages)

	_, err := s.pool.Exec(ctx, query,
		msg.ID,
		msg.SessionID,
		msg.Role,
		msg.Content,
		msg.CreatedAt,
		msg.Metadata, // pgx handles struct -> JSONB (nil becomes NULL)
	)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return fmt.Errorf("message %s: %w", msg.ID, domain.ErrConflict)
		}
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("session %s: %w", msg.SessionID, domain.ErrNotFound)
		}
		return fmt.Errorf("insert message: %w", err)
	}

	return nil
}

// ListMessagesBySession retrieves a session's messages in creation order
func (s *PostgresMessageStore) ListMessagesBySession(ctx context.Context, sessionID string) ([]chatModels.Message, error) {
	query := fmt.Sprintf(`
		SELECT id, session_id, role, content, created_at, metadata
		FROM %s
		WHERE session_id = $1
		ORDER BY created_at ASC
	`, s.tables.Messages)

	rows, err := s.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []chatModels.Message
	for rows.Next() {
		var msg chatModels.Message
		err := rows.Scan(
			&msg.ID,
			&msg.SessionID,
			&msg.Role,
			&msg.Content,
			&msg.CreatedAt,
			&msg.Metadata, // pgx handles JSONB -> struct
		)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Final = true
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	// Return empty slice instead of nil
	if messages == nil {
		messages = []chatModels.Message{}
	}

	return messages, nil
}
