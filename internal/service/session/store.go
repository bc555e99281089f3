package session

import (
	"sync"
	"time"

	"github.com/sandevgo/reportgen/internal/core"
)

// DefaultIdle is how long a session may go untouched before a sweep removes it.
const DefaultIdle = time.Hour

type Option func(*Store)

// WithSeed sets the messages every new history starts with.
func WithSeed(seed func() []core.Message) Option {
	return func(s *Store) {
		s.seed = seed
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store keeps in-memory sessions keyed by session id.
type Store struct {
	name string
	idle time.Duration
	seed func() []core.Message
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore(name string, idle time.Duration, opts ...Option) *Store {
	if idle <= 0 {
		idle = DefaultIdle
	}
	s := &Store{
		name:     name,
		idle:     idle,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Name() string {
	return s.name
}

// GetOrCreate returns the session for id, creating a seeded one if absent, and marks
// it as accessed. Concurrent callers for the same id always receive the same session.
func (s *Store) GetOrCreate(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if sess, ok := s.sessions[id]; ok {
		sess.lastAccessed = now
		return sess
	}

	sess := &Session{id: id, created: now, lastAccessed: now}
	if s.seed != nil {
		sess.history = append(sess.history, s.seed()...)
	}
	s.sessions[id] = sess
	return sess
}

// Get returns an existing session without touching it.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Clear removes the session. It reports whether a session existed.
func (s *Store) Clear(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// SweepExpired removes every session whose last access is older than the idle window
// at now, and returns how many were removed.
func (s *Store) SweepExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.lastAccessed) > s.idle {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
