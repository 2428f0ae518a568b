package chat

import (
	"testing"
	"time"

	chatModels "jobsage/internal/domain/models/chat"
)

func userMsg(id, text string) *chatModels.Message {
	return &chatModels.Message{
		ID:        id,
		Role:      chatModels.RoleUser,
		Content:   text,
		CreatedAt: time.Now(),
		Final:     true,
	}
}

func assistantPlaceholder(id string) *chatModels.Message {
	return &chatModels.Message{
		ID:        id,
		Role:      chatModels.RoleAssistant,
		CreatedAt: time.Now(),
	}
}

func messageIDs(msgs []chatModels.Message) []string {
	ids := make([]string, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}
	return ids
}

func TestNewReconcilerShowsGreetingOnly(t *testing.T) {
	r := NewReconciler()

	msgs := r.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].ID != chatModels.GreetingMessageID {
		t.Errorf("expected greeting id, got %q", msgs[0].ID)
	}
	if msgs[0].Role != chatModels.RoleAssistant {
		t.Errorf("greeting role = %q, want assistant", msgs[0].Role)
	}
	if !msgs[0].Final {
		t.Error("greeting should be final")
	}
}

func TestBeginSendAppendsInOrder(t *testing.T) {
	r := NewReconciler()
	r.Reset("s1")

	r.BeginSend(userMsg("u1", "find go jobs"), assistantPlaceholder("a1"))

	got := messageIDs(r.Messages())
	want := []string{chatModels.GreetingMessageID, "u1", "a1"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if r.InFlightID() != "a1" {
		t.Errorf("in-flight = %q, want a1", r.InFlightID())
	}
}

func TestApplyTokenAccumulatesVerbatim(t *testing.T) {
	r := NewReconciler()
	r.Reset("s1")
	r.BeginSend(userMsg("u1", "hi"), assistantPlaceholder("a1"))

	for _, delta := range []string{"Here", " are", "\n\n- two roles"} {
		if !r.ApplyToken("a1", delta) {
			t.Fatalf("ApplyToken(%q) reported no-op", delta)
		}
	}

	msgs := r.Messages()
	got := msgs[len(msgs)-1].Content
	want := "Here are\n\n- two roles"
	if got != want {
		t.Errorf("content = %q, want %q", got, want)
	}
}

func TestApplyTokenTargetsById(t *testing.T) {
	r := NewReconciler()
	r.Reset("s1")
	r.BeginSend(userMsg("u1", "first"), assistantPlaceholder("a1"))
	r.BeginSend(userMsg("u2", "second"), assistantPlaceholder("a2"))

	// Deltas land on their own targets regardless of list position.
	r.ApplyToken("a1", "one")
	r.ApplyToken("a2", "two")

	var got1, got2 string
	for _, m := range r.Messages() {
		switch m.ID {
		case "a1":
			got1 = m.Content
		case "a2":
			got2 = m.Content
		}
	}
	if got1 != "one" || got2 != "two" {
		t.Errorf("contents = %q, %q; want one, two", got1, got2)
	}
}

func TestApplyTokenAfterDetachIsNoOp(t *testing.T) {
	r := NewReconciler()
	r.Reset("s1")
	r.BeginSend(userMsg("u1", "hi"), assistantPlaceholder("a1"))

	// Switching sessions drops the placeholder from the display.
	r.LoadHistory("s2", nil)

	if r.ApplyToken("a1", "late delta") {
		t.Error("ApplyToken on detached target should report no-op")
	}
	for _, m := range r.Messages() {
		if m.Content == "late delta" {
			t.Error("late delta leaked into display")
		}
	}
}

func TestFinalizePrefersAccumulatedContent(t *testing.T) {
	r := NewReconciler()
	r.Reset("s1")
	r.BeginSend(userMsg("u1", "hi"), assistantPlaceholder("a1"))
	r.ApplyToken("a1", "streamed answer")

	final := &chatModels.FinalPayload{FinalAnswer: "summary answer"}
	msg, ok := r.Finalize("a1", final, true)
	if !ok {
		t.Fatal("Finalize reported detached")
	}
	if msg.Content != "streamed answer" {
		t.Errorf("content = %q, want streamed answer", msg.Content)
	}
	if !msg.Final {
		t.Error("finalized message should be final")
	}
	if r.InFlightID() != "" {
		t.Errorf("in-flight = %q, want cleared", r.InFlightID())
	}
}

func TestFinalizeFallsBackToFinalAnswer(t *testing.T) {
	r := NewReconciler()
	r.Reset("s1")
	r.BeginSend(userMsg("u1", "hi"), assistantPlaceholder("a1"))

	final := &chatModels.FinalPayload{FinalAnswer: "No roles found."}
	msg, ok := r.Finalize("a1", final, false)
	if !ok {
		t.Fatal("Finalize reported detached")
	}
	if msg.Content != "No roles found." {
		t.Errorf("content = %q, want final answer", msg.Content)
	}
}

func TestFinalizeFallsBackToFixedText(t *testing.T) {
	r := NewReconciler()
	r.Reset("s1")
	r.BeginSend(userMsg("u1", "hi"), assistantPlaceholder("a1"))

	msg, ok := r.Finalize("a1", nil, false)
	if !ok {
		t.Fatal("Finalize reported detached")
	}
	if msg.Content != FallbackAssistantText {
		t.Errorf("content = %q, want %q", msg.Content, FallbackAssistantText)
	}
}

func TestFinalizeAttachesJobMetadataOnlyWhenNonEmpty(t *testing.T) {
	tests := []struct {
		name         string
		final        *chatModels.FinalPayload
		wantMetadata bool
	}{
		{
			name: "jobs present",
			final: &chatModels.FinalPayload{
				FinalAnswer: "found one",
				StructuredData: &chatModels.StructuredData{
					Jobs: []chatModels.Job{{JobTitle: "Backend Engineer", Company: "Acme"}},
				},
			},
			wantMetadata: true,
		},
		{
			name: "empty job list",
			final: &chatModels.FinalPayload{
				FinalAnswer:    "nothing",
				StructuredData: &chatModels.StructuredData{},
			},
			wantMetadata: false,
		},
		{
			name:         "no structured data",
			final:        &chatModels.FinalPayload{FinalAnswer: "chat answer"},
			wantMetadata: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReconciler()
			r.Reset("s1")
			r.BeginSend(userMsg("u1", "hi"), assistantPlaceholder("a1"))

			msg, ok := r.Finalize("a1", tt.final, false)
			if !ok {
				t.Fatal("Finalize reported detached")
			}
			if got := msg.Metadata != nil; got != tt.wantMetadata {
				t.Errorf("metadata present = %v, want %v", got, tt.wantMetadata)
			}
			if tt.wantMetadata && msg.Metadata.Type != chatModels.MetadataTypeJobResults {
				t.Errorf("metadata type = %q, want %q", msg.Metadata.Type, chatModels.MetadataTypeJobResults)
			}
		})
	}
}

func TestApplyTokenAfterFinalizeIsNoOp(t *testing.T) {
	r := NewReconciler()
	r.Reset("s1")
	r.BeginSend(userMsg("u1", "hi"), assistantPlaceholder("a1"))
	r.ApplyToken("a1", "answer")
	r.Finalize("a1", nil, true)

	if r.ApplyToken("a1", " extra") {
		t.Error("ApplyToken on finalized message should report no-op")
	}

	msgs := r.Messages()
	if got := msgs[len(msgs)-1].Content; got != "answer" {
		t.Errorf("content = %q, want frozen answer", got)
	}
}

func TestFailFreezesErrorTextWithoutChangingLength(t *testing.T) {
	r := NewReconciler()
	r.Reset("s1")
	r.BeginSend(userMsg("u1", "hi"), assistantPlaceholder("a1"))
	r.ApplyToken("a1", "partial")
	before := len(r.Messages())

	msg, ok := r.Fail("a1")
	if !ok {
		t.Fatal("Fail reported detached")
	}
	if msg.Content != ErrorAssistantText {
		t.Errorf("content = %q, want %q", msg.Content, ErrorAssistantText)
	}
	if msg.Metadata != nil {
		t.Error("failed message should carry no metadata")
	}
	if after := len(r.Messages()); after != before {
		t.Errorf("list length changed from %d to %d", before, after)
	}
	if r.ApplyToken("a1", "late") {
		t.Error("failed message accepted a delta")
	}
}

func TestFailOnDetachedTargetLeavesDisplayAlone(t *testing.T) {
	r := NewReconciler()
	r.Reset("s1")
	r.BeginSend(userMsg("u1", "hi"), assistantPlaceholder("a1"))
	r.LoadHistory("s2", nil)
	before := len(r.Messages())

	if _, ok := r.Fail("a1"); ok {
		t.Error("Fail on detached target should report false")
	}
	if after := len(r.Messages()); after != before {
		t.Errorf("list length changed from %d to %d", before, after)
	}
}

func TestLoadHistoryDifferentSessionReplacesWholesale(t *testing.T) {
	r := NewReconciler()
	r.Reset("s1")
	r.BeginSend(userMsg("u1", "hi"), assistantPlaceholder("a1"))

	reloaded := []chatModels.Message{
		{ID: "m1", SessionID: "s2", Role: chatModels.RoleUser, Content: "old question"},
		{ID: "m2", SessionID: "s2", Role: chatModels.RoleAssistant, Content: "old answer"},
	}
	r.LoadHistory("s2", reloaded)

	got := messageIDs(r.Messages())
	want := []string{chatModels.GreetingMessageID, "m1", "m2"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if r.ActiveSessionID() != "s2" {
		t.Errorf("active session = %q, want s2", r.ActiveSessionID())
	}
	if r.InFlightID() != "" {
		t.Errorf("in-flight = %q, want cleared after switch", r.InFlightID())
	}
}

func TestLoadHistorySameSessionKeepsOptimisticMessages(t *testing.T) {
	r := NewReconciler()
	r.Reset("s1")
	r.BeginSend(userMsg("u1", "persisted question"), assistantPlaceholder("a1"))
	r.ApplyToken("a1", "in-flight answer")

	// The store has the user message but not the still-streaming reply.
	reloaded := []chatModels.Message{
		{ID: "u1", SessionID: "s1", Role: chatModels.RoleUser, Content: "persisted question"},
	}
	r.LoadHistory("s1", reloaded)

	got := messageIDs(r.Messages())
	want := []string{chatModels.GreetingMessageID, "u1", "a1"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	// The in-flight message still accepts deltas after the merge.
	if !r.ApplyToken("a1", " continues") {
		t.Error("in-flight message lost across merge")
	}
}

func TestLoadHistoryNeverDuplicatesGreeting(t *testing.T) {
	r := NewReconciler()
	r.Reset("s1")
	r.LoadHistory("s1", []chatModels.Message{
		{ID: "m1", SessionID: "s1", Role: chatModels.RoleUser, Content: "q"},
	})
	r.LoadHistory("s1", []chatModels.Message{
		{ID: "m1", SessionID: "s1", Role: chatModels.RoleUser, Content: "q"},
	})

	count := 0
	for _, m := range r.Messages() {
		if m.ID == chatModels.GreetingMessageID {
			count++
		}
	}
	if count != 1 {
		t.Errorf("greeting appears %d times, want 1", count)
	}
}

func TestResetClearsHistoryAndInFlight(t *testing.T) {
	r := NewReconciler()
	r.Reset("s1")
	r.BeginSend(userMsg("u1", "hi"), assistantPlaceholder("a1"))

	r.Reset("s2")

	msgs := r.Messages()
	if len(msgs) != 1 || msgs[0].ID != chatModels.GreetingMessageID {
		t.Errorf("expected greeting only, got %v", messageIDs(msgs))
	}
	if r.InFlightID() != "" {
		t.Errorf("in-flight = %q, want cleared", r.InFlightID())
	}
	if r.ActiveSessionID() != "s2" {
		t.Errorf("active session = %q, want s2", r.ActiveSessionID())
	}
}

func TestResolveAssistantContent(t *testing.T) {
	tests := []struct {
		name        string
		accumulated string
		final       *chatModels.FinalPayload
		want        string
	}{
		{"accumulated wins", "streamed", &chatModels.FinalPayload{FinalAnswer: "final"}, "streamed"},
		{"final answer next", "", &chatModels.FinalPayload{FinalAnswer: "final"}, "final"},
		{"empty final answer", "", &chatModels.FinalPayload{}, FallbackAssistantText},
		{"nil final", "", nil, FallbackAssistantText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveAssistantContent(tt.accumulated, tt.final); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
