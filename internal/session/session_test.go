package session

import (
	"context"
	"fmt"
	"testing"

	"loom/internal/prompt"
)

func TestSystemMessagePinned(t *testing.T) {
	s := New(WithSystem("You are a pirate."))
	ctx := context.Background()

	if err := s.Append(ctx, prompt.UserMessage("ahoy")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != prompt.RoleSystem || msgs[0].Content != "You are a pirate." {
		t.Errorf("System message not first: %+v", msgs[0])
	}
}

func TestWindowTrimming(t *testing.T) {
	s := New(WithSystem("stay brief"), WithMaxTurns(3))
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := s.Append(ctx, prompt.UserMessage(fmt.Sprintf("q%d", i))); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if err := s.Append(ctx, prompt.AssistantMessage(fmt.Sprintf("a%d", i))); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	if got := s.Turns(); got != 6 {
		t.Fatalf("Expected 6 retained turns, got %d", got)
	}

	msgs := s.Messages()
	if msgs[0].Role != prompt.RoleSystem {
		t.Errorf("System message lost after trimming")
	}
	if msgs[1].Content != "q7" || msgs[1].Role != prompt.RoleUser {
		t.Errorf("Window should start at q7, got %+v", msgs[1])
	}
	if last := msgs[len(msgs)-1]; last.Content != "a9" {
		t.Errorf("Expected newest message a9, got %q", last.Content)
	}
}

func TestTrimStartsAtUserMessage(t *testing.T) {
	s := New(WithMaxTurns(1))
	ctx := context.Background()

	// Two assistant messages for one user turn, so a naive cut would
	// open the window on an assistant message.
	s.Append(ctx, prompt.UserMessage("q1"))
	s.Append(ctx, prompt.AssistantMessage("a1"))
	s.Append(ctx, prompt.UserMessage("q2"))
	s.Append(ctx, prompt.AssistantMessage("a2a"))
	s.Append(ctx, prompt.AssistantMessage("a2b"))

	msgs := s.Messages()
	if msgs[0].Role != prompt.RoleUser {
		t.Errorf("Window opens on %s, want user message", msgs[0].Role)
	}
}

func TestAppendRejectsInvalidRole(t *testing.T) {
	s := New()
	if err := s.Append(context.Background(), prompt.Message{Role: "narrator", Content: "..."}); err == nil {
		t.Fatal("Expected error for invalid role")
	}
}

func TestClearKeepsSystem(t *testing.T) {
	s := New(WithSystem("be kind"))
	ctx := context.Background()
	s.Append(ctx, prompt.UserMessage("hello"))
	s.Clear()

	msgs := s.Messages()
	if len(msgs) != 1 || msgs[0].Role != prompt.RoleSystem {
		t.Fatalf("Expected only system message after Clear, got %+v", msgs)
	}
}

type recordingPersister struct {
	appended []prompt.Message
	history  []prompt.Message
}

func (r *recordingPersister) CreateSession(context.Context, string) (string, error) {
	return "fixed-id", nil
}

func (r *recordingPersister) AppendMessage(_ context.Context, _ string, msg prompt.Message) error {
	r.appended = append(r.appended, msg)
	return nil
}

func (r *recordingPersister) Messages(context.Context, string) ([]prompt.Message, error) {
	return r.history, nil
}

func TestPersisterWriteThrough(t *testing.T) {
	p := &recordingPersister{}
	s := New(WithPersister(p))
	ctx := context.Background()

	s.Append(ctx, prompt.UserMessage("hi"))
	s.Append(ctx, prompt.AssistantMessage("hello"))

	if len(p.appended) != 2 {
		t.Fatalf("Expected 2 persisted messages, got %d", len(p.appended))
	}
}

func TestResume(t *testing.T) {
	p := &recordingPersister{history: []prompt.Message{
		prompt.SystemMessage("old system"),
		prompt.UserMessage("q1"),
		prompt.AssistantMessage("a1"),
	}}

	s, err := Resume(context.Background(), p, "abc123")
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if s.ID() != "abc123" {
		t.Errorf("Expected resumed id abc123, got %s", s.ID())
	}

	msgs := s.Messages()
	if len(msgs) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "old system" {
		t.Errorf("System message not restored: %+v", msgs[0])
	}
}
