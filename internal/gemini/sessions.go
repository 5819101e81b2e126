package gemini

import (
	"context"
	"sync"
	"time"

	"github.com/edgard/agentpulse/internal/domain"
)

const (
	defaultMaxSessions = 256
	defaultSessionIdle = 2 * time.Hour
)

// SessionOptions bounds the session table.
type SessionOptions struct {
	// MaxSessions caps live sessions; the least recently used one is evicted
	// to make room. Zero means defaultMaxSessions.
	MaxSessions int
	// IdleTimeout drops sessions unused for longer than this. Zero means
	// defaultSessionIdle.
	IdleTimeout time.Duration
	// Now overrides the clock.
	Now func() time.Time
}

type sessionEntry struct {
	session  ChatSession
	lastUsed time.Time
}

// Sessions keeps one assistant conversation per key (a Telegram chat, a web
// client). Sessions live in memory only.
type Sessions struct {
	client  Client
	profile func() domain.UserProfile
	max     int
	idle    time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// NewSessions creates an empty table. profile supplies the persona for new sessions.
func NewSessions(client Client, profile func() domain.UserProfile, opts ...SessionOptions) *Sessions {
	var opt SessionOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	s := &Sessions{
		client:   client,
		profile:  profile,
		max:      opt.MaxSessions,
		idle:     opt.IdleTimeout,
		now:      opt.Now,
		sessions: make(map[string]*sessionEntry),
	}
	if s.max <= 0 {
		s.max = defaultMaxSessions
	}
	if s.idle <= 0 {
		s.idle = defaultSessionIdle
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Get returns the session for key, opening one if needed.
func (s *Sessions) Get(ctx context.Context, key string) (ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.expireLocked(now)
	if e, ok := s.sessions[key]; ok {
		e.lastUsed = now
		return e.session, nil
	}
	sess, err := s.client.NewChatSession(ctx, s.profile())
	if err != nil {
		return nil, err
	}
	for len(s.sessions) >= s.max {
		s.evictOldestLocked()
	}
	s.sessions[key] = &sessionEntry{session: sess, lastUsed: now}
	return sess, nil
}

// Len reports the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Sessions) expireLocked(now time.Time) {
	for key, e := range s.sessions {
		if now.Sub(e.lastUsed) > s.idle {
			delete(s.sessions, key)
		}
	}
}

func (s *Sessions) evictOldestLocked() {
	var (
		oldest string
		at     time.Time
		found  bool
	)
	for key, e := range s.sessions {
		if !found || e.lastUsed.Before(at) {
			oldest, at, found = key, e.lastUsed, true
		}
	}
	delete(s.sessions, oldest)
}

// Drop forgets the session for key.
func (s *Sessions) Drop(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
}

// Clear forgets every session.
func (s *Sessions) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.sessions)
}
