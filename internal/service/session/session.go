package session

import (
	"sync"
	"time"

	"github.com/sandevgo/reportgen/internal/core"
)

// Session is one ordered conversation. Its history is safe for concurrent use.
type Session struct {
	id      string
	created time.Time

	mu      sync.Mutex
	history []core.Message

	// guarded by Store.mu
	lastAccessed time.Time
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) CreatedAt() time.Time {
	return s.created
}

// Messages returns a copy of the history.
func (s *Session) Messages() []core.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Message, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// Append adds messages to the end of the history in a single step.
func (s *Session) Append(msgs ...core.Message) {
	if len(msgs) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, msgs...)
}

// SeedSystem puts a leading system message in place unless one is already there.
// It reports whether the message was inserted.
func (s *Session) SeedSystem(content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.history) > 0 && s.history[0].Role == core.RoleSystem {
		return false
	}
	s.history = append([]core.Message{core.SystemMessage(content)}, s.history...)
	return true
}
