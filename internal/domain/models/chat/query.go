package chat

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// QueryRequest is the outbound body for both the streaming and the
// non-streaming chat endpoints.
type QueryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
	Mode      string `json:"mode,omitempty"` // "normal" or "job"
	Limit     int    `json:"limit,omitempty"`
}

// Validate rejects empty or whitespace-only queries before any network
// activity.
func (r QueryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Query, validation.Required, validation.By(notBlank)),
		validation.Field(&r.Limit, validation.Min(0)),
	)
}

// QueryResponse is the single JSON document returned by the non-streaming
// chat endpoint.
type QueryResponse struct {
	Response       string          `json:"response,omitempty"`
	FinalAnswer    string          `json:"final_answer,omitempty"`
	StructuredData *StructuredData `json:"structured_data,omitempty"`
	JobURLs        []string        `json:"job_urls,omitempty"`
	Status         string          `json:"status,omitempty"`
}

// AnswerText returns the display text of the response, preferring the
// conversational field over the final answer.
func (r *QueryResponse) AnswerText() string {
	if r.Response != "" {
		return r.Response
	}
	return r.FinalAnswer
}

// JobResults returns the structured job listings of the response, nil-safe.
func (r *QueryResponse) JobResults() []Job {
	if r == nil || r.StructuredData == nil {
		return nil
	}
	return r.StructuredData.Jobs
}

func notBlank(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return validation.ErrRequired
	}
	return nil
}
