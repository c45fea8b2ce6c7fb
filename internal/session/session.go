// Package session keeps conversation history for multi-turn chat,
// trimming old turns so context stays bounded.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"loom/internal/prompt"
)

// DefaultMaxTurns is how many user/assistant exchanges are kept when a
// session does not set its own limit.
const DefaultMaxTurns = 20

// Persister saves session turns somewhere durable. *store.Store
// satisfies it.
type Persister interface {
	CreateSession(ctx context.Context, title string) (string, error)
	AppendMessage(ctx context.Context, sessionID string, msg prompt.Message) error
	Messages(ctx context.Context, sessionID string) ([]prompt.Message, error)
}

// Session holds an in-memory conversation window. The system message,
// when set, always survives trimming. Safe for concurrent use.
type Session struct {
	mu       sync.Mutex
	id       string
	system   string
	maxTurns int
	msgs     []prompt.Message

	persister Persister
}

// Option configures a Session.
type Option func(*Session)

// WithSystem sets the system message pinned at the head of every
// Messages call.
func WithSystem(system string) Option {
	return func(s *Session) { s.system = system }
}

// WithMaxTurns bounds how many user/assistant exchanges are retained.
func WithMaxTurns(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxTurns = n
		}
	}
}

// WithPersister mirrors every appended message to durable storage.
func WithPersister(p Persister) Option {
	return func(s *Session) { s.persister = p }
}

// New creates a session with a fresh id.
func New(opts ...Option) *Session {
	s := &Session{
		id:       uuid.NewString(),
		maxTurns: DefaultMaxTurns,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resume loads an existing session's history from the persister.
func Resume(ctx context.Context, p Persister, sessionID string, opts ...Option) (*Session, error) {
	msgs, err := p.Messages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("resume session %s: %w", sessionID, err)
	}

	s := New(opts...)
	s.id = sessionID
	s.persister = p
	for _, msg := range msgs {
		if msg.Role == prompt.RoleSystem {
			s.system = msg.Content
			continue
		}
		s.msgs = append(s.msgs, msg)
	}
	s.trimLocked()
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Append records a turn. With a persister attached the message is also
// written through.
func (s *Session) Append(ctx context.Context, msg prompt.Message) error {
	if !prompt.ValidRole(msg.Role) {
		return fmt.Errorf("invalid message role %q", msg.Role)
	}

	s.mu.Lock()
	if msg.Role == prompt.RoleSystem {
		s.system = msg.Content
	} else {
		s.msgs = append(s.msgs, msg)
		s.trimLocked()
	}
	s.mu.Unlock()

	if s.persister != nil {
		if err := s.persister.AppendMessage(ctx, s.id, msg); err != nil {
			return fmt.Errorf("persist message: %w", err)
		}
	}
	return nil
}

// Messages returns the system message (if any) followed by the
// retained conversation turns. The returned slice is a copy.
func (s *Session) Messages() []prompt.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]prompt.Message, 0, len(s.msgs)+1)
	if s.system != "" {
		out = append(out, prompt.SystemMessage(s.system))
	}
	out = append(out, s.msgs...)
	return out
}

// Turns reports how many non-system messages are retained.
func (s *Session) Turns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

// Clear drops the conversation window but keeps the system message.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = nil
}

// trimLocked drops the oldest messages once the window exceeds
// maxTurns exchanges. Caller must hold mu. Trimming starts at a user
// message so the window never opens mid-exchange.
func (s *Session) trimLocked() {
	limit := s.maxTurns * 2
	if limit <= 0 || len(s.msgs) <= limit {
		return
	}
	start := len(s.msgs) - limit
	for start < len(s.msgs) && s.msgs[start].Role != prompt.RoleUser {
		start++
	}
	s.msgs = s.msgs[start:]
}
