package chat

import (
	"time"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MetadataTypeJobResults tags metadata carrying structured job listings.
const MetadataTypeJobResults = "job_results"

// GreetingMessageID is the fixed id of the synthetic greeting prepended to
// every displayed conversation. It is never persisted and never merged.
const GreetingMessageID = "greeting"

const greetingText = "Hello! I'm JobSage. Ask me to find internships, jobs, or explain concepts."

// MessageMetadata is the structured payload attached to an assistant message
// after its stream completes. Nil means no structured result.
type MessageMetadata struct {
	Type string `json:"type"`
	Jobs []Job  `json:"jobs,omitempty"`
}

// Message represents a single turn in a conversation.
// Assistant messages grow by append while a response streams, then freeze.
type Message struct {
	ID        string           `json:"id" db:"id"`
	SessionID string           `json:"session_id,omitempty" db:"session_id"`
	Role      string           `json:"role" db:"role"`
	Content   string           `json:"content" db:"content"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	Metadata  *MessageMetadata `json:"metadata,omitempty" db:"metadata"`

	// Final marks the message immutable. User messages and reloaded history
	// are final from creation; assistant placeholders become final when
	// their stream finishes or fails. Not persisted.
	Final bool `json:"-" db:"-"`
}

// GreetingMessage returns a fresh copy of the synthetic greeting.
func GreetingMessage() *Message {
	return &Message{
		ID:      GreetingMessageID,
		Role:    RoleAssistant,
		Content: greetingText,
		Final:   true,
	}
}

// JobResultsMetadata builds job_results metadata, or nil when the result
// collection is empty. Metadata is only ever attached for non-empty results.
func JobResultsMetadata(jobs []Job) *MessageMetadata {
	if len(jobs) == 0 {
		return nil
	}
	return &MessageMetadata{
		Type: MetadataTypeJobResults,
		Jobs: jobs,
	}
}
