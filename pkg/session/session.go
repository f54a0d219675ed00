// Package session keeps live viewer sessions for the HTTP server.
//
// A session owns one [scene.Scene] over a stored tree. Clients create a
// session, then drive it with zoom, pointer and mode requests and poll
// frames. Scenes are single threaded, so every access goes through
// [Session.Do], which serializes callers.
//
// Sessions expire after a period without use:
//
//	m := session.NewManager(session.WithTTL(30 * time.Minute))
//	go m.Run(ctx, time.Minute) // periodic Cleanup
//
//	sess, err := m.Create(treeID, sc)
//	...
//	sess.Do(func(sc *scene.Scene) { sc.ZoomIn(time.Now()) })
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/gitscroll/pkg/errors"
	"github.com/matzehuels/gitscroll/pkg/scene"
)

// Default limits.
const (
	// DefaultTTL is how long an unused session survives.
	DefaultTTL = 30 * time.Minute

	// DefaultMaxSessions caps live sessions; the least recently used one is
	// evicted to make room.
	DefaultMaxSessions = 256
)

// Session is one client's view of a tree.
type Session struct {
	ID        string
	TreeID    string
	CreatedAt time.Time

	mu       sync.Mutex
	scene    *scene.Scene
	lastUsed time.Time
}

// Do runs fn with exclusive access to the session's scene.
func (s *Session) Do(fn func(sc *scene.Scene)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()
	fn(s.scene)
}

// LastUsed returns when the session was last accessed.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// IsExpired reports whether the session has been idle for longer than ttl
// at now.
func (s *Session) IsExpired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(s.LastUsed()) > ttl
}

// Manager holds live sessions in memory.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	max      int
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL sets the idle timeout. Zero disables expiry.
func WithTTL(d time.Duration) Option {
	return func(m *Manager) { m.ttl = d }
}

// WithMaxSessions sets the session cap. Values below one keep the default.
func WithMaxSessions(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.max = n
		}
	}
}

// NewManager returns an empty manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		ttl:      DefaultTTL,
		max:      DefaultMaxSessions,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GenerateID creates a random session ID.
func GenerateID() string {
	return uuid.NewString()
}

// Create registers a new session over sc.
func (m *Manager) Create(treeID string, sc *scene.Scene) *Session {
	now := time.Now()
	sess := &Session{
		ID:        GenerateID(),
		TreeID:    treeID,
		CreatedAt: now,
		scene:     sc,
		lastUsed:  now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sessions) >= m.max {
		m.evictOldestLocked()
	}
	m.sessions[sess.ID] = sess
	return sess
}

// Get returns a live session. Unknown and expired IDs yield an error with
// code SESSION_NOT_FOUND; expired sessions are removed.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %q not found", id)
	}
	if sess.IsExpired(time.Now(), m.ttl) {
		m.remove(id)
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %q expired", id)
	}
	return sess, nil
}

// Delete removes a session.
func (m *Manager) Delete(id string) error {
	if !m.remove(id) {
		return errors.New(errors.ErrCodeSessionNotFound, "session %q not found", id)
	}
	return nil
}

// Len returns the number of live sessions, expired ones included until the
// next Cleanup.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Cleanup removes sessions idle at now and returns how many it removed.
func (m *Manager) Cleanup(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, sess := range m.sessions {
		if sess.IsExpired(now, m.ttl) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Run calls Cleanup every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			m.Cleanup(now)
		}
	}
}

func (m *Manager) remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

func (m *Manager) evictOldestLocked() {
	var oldest *Session
	for _, sess := range m.sessions {
		if oldest == nil || sess.LastUsed().Before(oldest.LastUsed()) {
			oldest = sess
		}
	}
	if oldest != nil {
		delete(m.sessions, oldest.ID)
	}
}
