package chat

import (
	"fmt"
	"strings"
)

// Stream event kind constants
// SSE format:
//
//	event: token
//	data:Here are
const (
	StreamEventStatus = "status" // human-readable progress text, not content
	StreamEventToken  = "token"  // incremental content fragment to append
	StreamEventFinal  = "final"  // terminal structured payload
)

// StreamEvent is one decoded, typed event from an agent response stream.
// Exactly one of the payload fields is meaningful, selected by Kind.
// Err reports a transport or decode failure and terminates the stream.
type StreamEvent struct {
	Kind   string
	Status string        // trimmed progress text (status events)
	Token  string        // verbatim content fragment, whitespace significant (token events)
	Final  *FinalPayload // parsed terminal document (final events)
	Err    error
}

// StructuredData is the structured-result document of a final payload.
type StructuredData struct {
	Jobs []Job `json:"jobs,omitempty"`
}

// FinalPayload is the JSON document carried by a final event, and by the
// non-streaming chat endpoint.
type FinalPayload struct {
	FinalAnswer    string          `json:"final_answer,omitempty"`
	StructuredData *StructuredData `json:"structured_data,omitempty"`
	JobURLs        []string        `json:"job_urls,omitempty"`
	Status         string          `json:"status,omitempty"`
	SessionID      string          `json:"session_id,omitempty"`
}

// JobResults returns the structured job listings of the payload, nil-safe.
func (p *FinalPayload) JobResults() []Job {
	if p == nil || p.StructuredData == nil {
		return nil
	}
	return p.StructuredData.Jobs
}

// FormatSSE formats one event for transmission. Multi-line data becomes
// multiple data: lines; the payload is written verbatim after the colon so
// leading whitespace survives the round trip.
func FormatSSE(event, data string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "event: %s\n", event)
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(&b, "data:%s\n", line)
	}
	b.WriteString("\n")
	return b.String()
}
