// Package chat implements the client-side chat core: the message-list
// reconciler and the send orchestration that drives the agent stream and
// the persistence store.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"jobsage/internal/domain"
	chatModels "jobsage/internal/domain/models/chat"
	chatRepo "jobsage/internal/domain/repositories/chat"
	"jobsage/internal/modes"
)

// Session title rules. A freshly created session is titled from the first
// words of the outgoing text; the placeholder title is promoted to a real
// one on the first user message only.
const (
	placeholderTitle = "NewChat"
	titleMaxWords    = 6
	titleMaxRunes    = 40
)

// placeholderTitles are titles treated as "not yet named", compared
// lowercase with whitespace removed.
var placeholderTitles = map[string]struct{}{
	"newchat": {},
	"new":     {},
}

// AgentClient is the slice of the agent backend the service depends on.
type AgentClient interface {
	Query(ctx context.Context, req chatModels.QueryRequest) (*chatModels.QueryResponse, error)
	StreamQuery(ctx context.Context, req chatModels.QueryRequest) (<-chan chatModels.StreamEvent, error)
}

// ProgressFunc receives status text from the stream's side channel. It is
// never written into message content.
type ProgressFunc func(status string)

// Service owns the reconciler and orchestrates sends: optimistic append,
// streaming, finalization, and the fixed persistence sequence.
type Service struct {
	agent        AgentClient
	sessionStore chatRepo.SessionStore
	messageStore chatRepo.MessageStore
	modes        *modes.Registry
	rec          *Reconciler
	logger       *slog.Logger
	now          func() time.Time
	newID        func() string
}

// NewService creates a chat service displaying an empty conversation.
func NewService(
	agent AgentClient,
	sessionStore chatRepo.SessionStore,
	messageStore chatRepo.MessageStore,
	modeRegistry *modes.Registry,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		agent:        agent,
		sessionStore: sessionStore,
		messageStore: messageStore,
		modes:        modeRegistry,
		rec:          NewReconciler(),
		logger:       logger,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// Messages returns a snapshot of the displayed conversation.
func (s *Service) Messages() []chatModels.Message {
	return s.rec.Messages()
}

// ActiveSessionID returns the id of the displayed session, or "".
func (s *Service) ActiveSessionID() string {
	return s.rec.ActiveSessionID()
}

// Sessions lists sessions, most recently updated first.
func (s *Service) Sessions(ctx context.Context) ([]chatModels.Session, error) {
	return s.sessionStore.ListSessions(ctx)
}

// SendInput is one outgoing user query.
type SendInput struct {
	Text   string
	UIMode string // UI toggle value ("pro", "remote"); mapped via the mode registry
	Limit  int    // 0 means the mode's default
}

func (s *Service) validateSendInput(in *SendInput) error {
	return validation.ValidateStruct(in,
		validation.Field(&in.Text, validation.Required, validation.By(notBlankText)),
		validation.Field(&in.Limit, validation.Min(0)),
	)
}

func notBlankText(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return validation.ErrRequired
	}
	return nil
}

// NewSession explicitly starts a fresh, untitled session and activates it.
func (s *Service) NewSession(ctx context.Context) (*chatModels.Session, error) {
	session, err := s.createSession(ctx, "", s.now())
	if err != nil {
		return nil, err
	}
	s.rec.Reset(session.ID)
	return session, nil
}

// ActivateSession loads a session's persisted history and reconciles it
// into the display. Switching sessions swaps the list wholesale; reloading
// the displayed session merges without wiping in-flight sends.
func (s *Service) ActivateSession(ctx context.Context, sessionID string) error {
	msgs, err := s.messageStore.ListMessagesBySession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session history: %w", err)
	}
	s.rec.LoadHistory(sessionID, msgs)
	return nil
}

// RefreshHistory refetches the displayed session's history and merges it,
// preserving optimistic messages the store has not returned yet. A no-op
// before any session is active.
func (s *Service) RefreshHistory(ctx context.Context) error {
	sessionID := s.rec.ActiveSessionID()
	if sessionID == "" {
		return nil
	}
	return s.ActivateSession(ctx, sessionID)
}

// Send submits a query over the streaming endpoint. It appends the user
// message and an assistant placeholder immediately, applies streamed
// deltas as they arrive, and finalizes the placeholder on completion or
// failure; the returned message is always terminal. Status events are
// delivered through progress, never into message content.
//
// Persistence is best-effort: store failures after the session exists are
// logged and never roll back the displayed conversation.
func (s *Service) Send(ctx context.Context, in SendInput, progress ProgressFunc) (*chatModels.Message, error) {
	if err := s.validateSendInput(&in); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	now := s.now()
	sessionID, err := s.ensureSession(ctx, in.Text, now)
	if err != nil {
		return nil, err
	}

	userMsg := &chatModels.Message{
		ID:        s.newID(),
		SessionID: sessionID,
		Role:      chatModels.RoleUser,
		Content:   in.Text,
		CreatedAt: now,
		Final:     true,
	}
	placeholder := &chatModels.Message{
		ID:        s.newID(),
		SessionID: sessionID,
		Role:      chatModels.RoleAssistant,
		CreatedAt: now,
	}
	s.rec.BeginSend(userMsg, placeholder)

	// User message, then session preview, awaited in order: the persisted
	// history never shows a reply without its question.
	if err := s.messageStore.InsertMessage(ctx, userMsg); err != nil {
		s.logger.Error("failed to persist user message",
			"error", err,
			"session_id", sessionID,
			"message_id", userMsg.ID,
		)
	}
	if err := s.sessionStore.UpdateSessionLastMessage(ctx, sessionID, in.Text, now); err != nil {
		s.logger.Error("failed to update session preview", "error", err, "session_id", sessionID)
	}

	req := s.buildQueryRequest(in, sessionID)

	events, err := s.agent.StreamQuery(ctx, req)
	if err != nil {
		s.logger.Error("failed to open agent stream", "error", err, "session_id", sessionID)
		msg, _ := s.rec.Fail(placeholder.ID)
		return &msg, fmt.Errorf("stream query: %w", err)
	}

	var (
		sawDelta  bool
		final     *chatModels.FinalPayload
		streamErr error
	)
	for ev := range events {
		switch {
		case ev.Err != nil:
			streamErr = ev.Err
		case ev.Kind == chatModels.StreamEventStatus:
			if progress != nil {
				progress(ev.Status)
			}
		case ev.Kind == chatModels.StreamEventToken:
			sawDelta = true
			s.rec.ApplyToken(placeholder.ID, ev.Token)
		case ev.Kind == chatModels.StreamEventFinal:
			final = ev.Final
		}
	}

	if streamErr != nil {
		s.logger.Error("agent stream failed", "error", streamErr, "session_id", sessionID)
		msg, _ := s.rec.Fail(placeholder.ID)
		return &msg, fmt.Errorf("stream query: %w", streamErr)
	}

	msg, attached := s.rec.Finalize(placeholder.ID, final, sawDelta)
	if !attached {
		// The user switched sessions mid-stream. The bubble is gone, but
		// the reply still belongs to the originating session's history.
		msg = chatModels.Message{
			ID:        placeholder.ID,
			SessionID: sessionID,
			Role:      chatModels.RoleAssistant,
			Content:   ResolveAssistantContent("", final),
			Metadata:  chatModels.JobResultsMetadata(final.JobResults()),
			CreatedAt: now,
			Final:     true,
		}
		s.logger.Info("in-flight target detached, persisting reply only",
			"session_id", sessionID,
			"message_id", placeholder.ID,
		)
	}

	s.persistAssistantReply(ctx, sessionID, &msg)
	return &msg, nil
}

// SendOnce submits a query over the non-streaming fallback endpoint. The
// optimistic append, finalization, and persistence sequence match Send;
// there are no deltas and no progress events.
func (s *Service) SendOnce(ctx context.Context, in SendInput) (*chatModels.Message, error) {
	if err := s.validateSendInput(&in); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	now := s.now()
	sessionID, err := s.ensureSession(ctx, in.Text, now)
	if err != nil {
		return nil, err
	}

	userMsg := &chatModels.Message{
		ID:        s.newID(),
		SessionID: sessionID,
		Role:      chatModels.RoleUser,
		Content:   in.Text,
		CreatedAt: now,
		Final:     true,
	}
	placeholder := &chatModels.Message{
		ID:        s.newID(),
		SessionID: sessionID,
		Role:      chatModels.RoleAssistant,
		CreatedAt: now,
	}
	s.rec.BeginSend(userMsg, placeholder)

	if err := s.messageStore.InsertMessage(ctx, userMsg); err != nil {
		s.logger.Error("failed to persist user message",
			"error", err,
			"session_id", sessionID,
			"message_id", userMsg.ID,
		)
	}
	if err := s.sessionStore.UpdateSessionLastMessage(ctx, sessionID, in.Text, now); err != nil {
		s.logger.Error("failed to update session preview", "error", err, "session_id", sessionID)
	}

	resp, err := s.agent.Query(ctx, s.buildQueryRequest(in, sessionID))
	if err != nil {
		s.logger.Error("agent query failed", "error", err, "session_id", sessionID)
		msg, _ := s.rec.Fail(placeholder.ID)
		return &msg, fmt.Errorf("send query: %w", err)
	}

	final := &chatModels.FinalPayload{
		FinalAnswer:    resp.AnswerText(),
		StructuredData: resp.StructuredData,
	}
	msg, attached := s.rec.Finalize(placeholder.ID, final, false)
	if !attached {
		msg = chatModels.Message{
			ID:        placeholder.ID,
			SessionID: sessionID,
			Role:      chatModels.RoleAssistant,
			Content:   ResolveAssistantContent("", final),
			Metadata:  chatModels.JobResultsMetadata(final.JobResults()),
			CreatedAt: now,
			Final:     true,
		}
	}

	s.persistAssistantReply(ctx, sessionID, &msg)
	return &msg, nil
}

// buildQueryRequest maps the UI mode to its backend mode and fills the
// limit from the mode's default when unset.
func (s *Service) buildQueryRequest(in SendInput, sessionID string) chatModels.QueryRequest {
	mode := s.modes.ForUIMode(in.UIMode)
	limit := in.Limit
	if limit == 0 {
		limit = mode.DefaultLimit
	}
	return chatModels.QueryRequest{
		Query:     in.Text,
		SessionID: sessionID,
		Mode:      mode.ID,
		Limit:     limit,
	}
}

// ensureSession returns the active session id, creating a session
// synchronously when none is active, and promotes a placeholder title on
// the first real user message. Session creation failure is the one
// persistence error that aborts a send: without a session id the history
// has no home.
func (s *Service) ensureSession(ctx context.Context, text string, now time.Time) (string, error) {
	sessionID := s.rec.ActiveSessionID()
	if sessionID == "" {
		session, err := s.createSession(ctx, text, now)
		if err != nil {
			return "", err
		}
		s.rec.Reset(session.ID)
		return session.ID, nil
	}

	s.maybePromoteTitle(ctx, sessionID, text, now)
	return sessionID, nil
}

func (s *Service) createSession(ctx context.Context, initialText string, now time.Time) (*chatModels.Session, error) {
	title := placeholderTitle
	if strings.TrimSpace(initialText) != "" {
		title = titleFromText(initialText)
	}

	session := &chatModels.Session{
		ID:          s.newID(),
		Title:       title,
		LastMessage: initialText,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.sessionStore.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("session created", "session_id", session.ID, "title", title)
	return session, nil
}

// maybePromoteTitle replaces a placeholder title with one derived from the
// first user message. Failures are logged; the title is cosmetic.
func (s *Service) maybePromoteTitle(ctx context.Context, sessionID, text string, now time.Time) {
	session, err := s.sessionStore.GetSession(ctx, sessionID)
	if err != nil {
		s.logger.Warn("failed to load session for title check", "error", err, "session_id", sessionID)
		return
	}
	if !isPlaceholderTitle(session.Title) {
		return
	}

	title := promotedTitle(text)
	if err := s.sessionStore.UpdateSessionTitle(ctx, sessionID, title, now); err != nil {
		s.logger.Error("failed to update session title", "error", err, "session_id", sessionID)
		return
	}
	s.logger.Info("session title promoted", "session_id", sessionID, "title", title)
}

// persistAssistantReply runs the tail of the fixed persistence sequence:
// assistant message insert, then session preview update. The reply is
// stamped at completion time; the user message keeps its send time, so a
// created_at reload always puts the reply after its question.
func (s *Service) persistAssistantReply(ctx context.Context, sessionID string, msg *chatModels.Message) {
	msg.CreatedAt = s.now()
	if err := s.messageStore.InsertMessage(ctx, msg); err != nil {
		s.logger.Error("failed to persist assistant message",
			"error", err,
			"session_id", sessionID,
			"message_id", msg.ID,
		)
	}
	if err := s.sessionStore.UpdateSessionLastMessage(ctx, sessionID, msg.Content, s.now()); err != nil {
		s.logger.Error("failed to update session preview", "error", err, "session_id", sessionID)
	}
}

// titleFromText derives a new session's title from the first words of the
// outgoing text.
func titleFromText(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return placeholderTitle
	}
	if len(fields) > titleMaxWords {
		fields = fields[:titleMaxWords]
	}
	return strings.Join(fields, " ")
}

// promotedTitle derives the title written on the first user message.
func promotedTitle(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return placeholderTitle
	}
	if len(runes) > titleMaxRunes {
		runes = runes[:titleMaxRunes]
	}
	return string(runes)
}

// isPlaceholderTitle reports whether a title is empty or one of the known
// placeholder values, compared case- and whitespace-insensitively.
func isPlaceholderTitle(title string) bool {
	normalized := strings.ToLower(strings.Join(strings.Fields(title), ""))
	if normalized == "" {
		return true
	}
	_, ok := placeholderTitles[normalized]
	return ok
}
