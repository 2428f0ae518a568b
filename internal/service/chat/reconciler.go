package chat

import (
	"sync"

	chatModels "jobsage/internal/domain/models/chat"
)

// Fixed assistant texts. FallbackAssistantText is shown when a stream ends
// with neither token deltas nor a usable final answer; ErrorAssistantText
// replaces a placeholder whose send failed, so the UI is never left with a
// permanently empty bubble.
const (
	FallbackAssistantText = "Here are the results."
	ErrorAssistantText    = "Sorry, I encountered an error connecting to the agent."
)

// Reconciler owns the displayed message list for the active session. It
// merges three sources of truth: optimistic local sends, streamed deltas,
// and externally reloaded history. Messages are targeted by id only, never
// by position, so reloads and streams can interleave safely.
type Reconciler struct {
	mu        sync.Mutex
	sessionID string
	messages  []*chatModels.Message
	inFlight  string
}

// NewReconciler returns a Reconciler displaying only the greeting.
func NewReconciler() *Reconciler {
	return &Reconciler{
		messages: []*chatModels.Message{chatModels.GreetingMessage()},
	}
}

// ActiveSessionID returns the id of the displayed session, or "" before any
// session is activated.
func (r *Reconciler) ActiveSessionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessionID
}

// InFlightID returns the id of the assistant placeholder currently
// receiving deltas, or "" when none is.
func (r *Reconciler) InFlightID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight
}

// Messages returns a value snapshot of the displayed list in conversation
// order.
func (r *Reconciler) Messages() []chatModels.Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]chatModels.Message, len(r.messages))
	for i, m := range r.messages {
		out[i] = *m
	}
	return out
}

// Reset switches the display to sessionID with an empty history, keeping
// only the greeting. Any in-flight target is detached.
func (r *Reconciler) Reset(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessionID = sessionID
	r.messages = []*chatModels.Message{chatModels.GreetingMessage()}
	r.inFlight = ""
}

// BeginSend appends the user message and the assistant placeholder, in that
// order, and records the placeholder as the in-flight target. Each send
// carries its own target id, so deltas from overlapping sends can never
// cross-apply.
func (r *Reconciler) BeginSend(userMsg, placeholder *chatModels.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages = append(r.messages, userMsg, placeholder)
	r.inFlight = placeholder.ID
}

// ApplyToken appends a verbatim content fragment to the message with the
// given id. It reports false, without touching any message, when the
// target is gone (session switched mid-stream) or already finalized.
func (r *Reconciler) ApplyToken(id, delta string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg := r.find(id)
	if msg == nil || msg.Final {
		return false
	}
	msg.Content += delta
	return true
}

// Finalize freezes the target message with its resolved content: the
// accumulated deltas when any were observed, otherwise the final answer
// text, otherwise the fixed fallback. Metadata is attached only when the
// final payload carries a non-empty job collection. It reports false when
// the target has been detached by a session switch.
func (r *Reconciler) Finalize(id string, final *chatModels.FinalPayload, sawDelta bool) (chatModels.Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inFlight == id {
		r.inFlight = ""
	}

	msg := r.find(id)
	if msg == nil {
		return chatModels.Message{}, false
	}

	accumulated := ""
	if sawDelta {
		accumulated = msg.Content
	}
	msg.Content = ResolveAssistantContent(accumulated, final)
	msg.Metadata = chatModels.JobResultsMetadata(final.JobResults())
	msg.Final = true
	return *msg, true
}

// Fail freezes the target message with the fixed error text and no
// metadata. The list length never changes: a detached target (session
// switched mid-send) is left alone rather than re-created.
func (r *Reconciler) Fail(id string) (chatModels.Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inFlight == id {
		r.inFlight = ""
	}

	msg := r.find(id)
	if msg == nil {
		return chatModels.Message{}, false
	}

	msg.Content = ErrorAssistantText
	msg.Metadata = nil
	msg.Final = true
	return *msg, true
}

// LoadHistory reconciles an externally reloaded message set against the
// displayed list.
//
// A reload for a different session replaces the display wholesale:
// greeting, then the reloaded set, with in-flight tracking cleared. A
// reload for the displayed session keeps local messages whose id is absent
// from the reloaded set (optimistic sends still in flight) and appends
// them after it in their existing order, so a concurrent background
// refetch never wipes an in-progress send.
func (r *Reconciler) LoadHistory(sessionID string, reloaded []chatModels.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	base := make([]*chatModels.Message, 0, len(reloaded)+1)
	base = append(base, chatModels.GreetingMessage())
	for i := range reloaded {
		m := reloaded[i]
		m.Final = true
		base = append(base, &m)
	}

	if sessionID != r.sessionID {
		r.sessionID = sessionID
		r.messages = base
		r.inFlight = ""
		return
	}

	seen := make(map[string]struct{}, len(base))
	for _, m := range base {
		seen[m.ID] = struct{}{}
	}
	for _, m := range r.messages {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		if m.ID == chatModels.GreetingMessageID {
			continue
		}
		base = append(base, m)
	}
	r.messages = base
}

// find locates a message by id. Callers hold r.mu.
func (r *Reconciler) find(id string) *chatModels.Message {
	for _, m := range r.messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// ResolveAssistantContent picks the content an assistant message freezes
// with: accumulated stream deltas when non-empty, else the final answer,
// else the fixed fallback.
func ResolveAssistantContent(accumulated string, final *chatModels.FinalPayload) string {
	if accumulated != "" {
		return accumulated
	}
	if final != nil && final.FinalAnswer != "" {
		return final.FinalAnswer
	}
	return FallbackAssistantText
}
