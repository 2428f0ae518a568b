// Package agent is the HTTP client for the job-search agent backend. It
// exposes the streaming chat endpoint as a channel of typed events, plus
// the non-streaming fallback and the initial-jobs feed.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"jobsage/internal/domain"
	chatModels "jobsage/internal/domain/models/chat"
	"jobsage/internal/sse"
)

// errorBodyLimit caps how much of a non-success response body is read into
// the returned error.
const errorBodyLimit = 4096

// Client talks to the agent backend. It is safe for concurrent use.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

// New creates a Client for the agent at baseURL. The underlying client has
// no overall timeout: streamed responses stay open as long as the agent is
// producing; use the context to bound individual calls.
func New(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(baseURL)
	httpClient.SetHeader("Content-Type", "application/json")

	return &Client{
		http:   httpClient,
		logger: logger,
	}
}

// Query sends a chat request to the non-streaming endpoint and returns the
// single response document.
func (c *Client) Query(ctx context.Context, req chatModels.QueryRequest) (*chatModels.QueryResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var out chatModels.QueryResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/chat")
	if err != nil {
		return nil, fmt.Errorf("send query: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("agent returned %s: %s", resp.Status(), strings.TrimSpace(resp.String()))
	}

	return &out, nil
}

// StreamQuery opens a streaming chat request and returns a channel of typed
// events in arrival order. A non-success response or transport failure is
// returned as an error before any events are produced. The channel is
// closed when the underlying stream ends; if no final event arrived by
// then, the stream terminated abnormally and the caller decides what the
// partial output means.
func (c *Client) StreamQuery(ctx context.Context, req chatModels.QueryRequest) (<-chan chatModels.StreamEvent, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetDoNotParseResponse(true).
		Post("/chat/stream")
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}

	body := resp.RawBody()
	if resp.IsError() {
		defer body.Close()
		detail, _ := io.ReadAll(io.LimitReader(body, errorBodyLimit))
		return nil, fmt.Errorf("agent returned %s: %s", resp.Status(), strings.TrimSpace(string(detail)))
	}

	start := time.Now()
	events := make(chan chatModels.StreamEvent, 10) // buffered to prevent blocking
	go c.decodeStream(ctx, body, events, start)
	return events, nil
}

// decodeStream drives the SSE decoder and forwards typed events until the
// body is exhausted, the context is cancelled, or a read fails.
func (c *Client) decodeStream(ctx context.Context, body io.ReadCloser, events chan<- chatModels.StreamEvent, start time.Time) {
	defer close(events)
	defer body.Close()

	count := 0
	dec := sse.NewDecoder(body)
	for dec.Next() {
		ev, ok := c.translateEvent(dec.Event())
		if !ok {
			continue
		}

		select {
		case <-ctx.Done():
			events <- chatModels.StreamEvent{Err: ctx.Err()}
			return
		case events <- ev:
			count++
		}
	}

	if err := dec.Err(); err != nil {
		events <- chatModels.StreamEvent{Err: fmt.Errorf("read stream: %w", err)}
		return
	}

	c.logger.Debug("agent stream finished",
		"events", count,
		"elapsed", time.Since(start),
	)
}

// translateEvent maps a wire event to a typed StreamEvent. Unknown event
// types and malformed final payloads are dropped rather than aborting the
// stream; the reconciler falls back to accumulated token content.
func (c *Client) translateEvent(ev sse.Event) (chatModels.StreamEvent, bool) {
	switch ev.Type {
	case chatModels.StreamEventStatus:
		return chatModels.StreamEvent{
			Kind:   chatModels.StreamEventStatus,
			Status: strings.TrimSpace(ev.Data),
		}, true

	case chatModels.StreamEventToken:
		return chatModels.StreamEvent{
			Kind:  chatModels.StreamEventToken,
			Token: ev.Data,
		}, true

	case chatModels.StreamEventFinal:
		var payload chatModels.FinalPayload
		if err := json.Unmarshal([]byte(ev.Data), &payload); err != nil {
			c.logger.Warn("dropping malformed final payload", "error", err)
			return chatModels.StreamEvent{}, false
		}
		return chatModels.StreamEvent{
			Kind:  chatModels.StreamEventFinal,
			Final: &payload,
		}, true

	default:
		return chatModels.StreamEvent{}, false
	}
}

// InitialJobs fetches the landing-page job feed.
func (c *Client) InitialJobs(ctx context.Context) ([]chatModels.Job, error) {
	var out struct {
		Jobs []chatModels.Job `json:"jobs"`
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/jobs/initial")
	if err != nil {
		return nil, fmt.Errorf("fetch initial jobs: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("agent returned %s: %s", resp.Status(), strings.TrimSpace(resp.String()))
	}

	return out.Jobs, nil
}
