package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"authgate/internal/models"
)

var ErrDuplicateSession = errors.New("session already exists")

// SessionStore maps session IDs to sessions. Get returns nil, nil when the
// session does not exist.
type SessionStore interface {
	Create(ctx context.Context, session models.Session) error
	Get(ctx context.Context, sessionID string) (*models.Session, error)
	Delete(ctx context.Context, sessionID string) (bool, error)
}

// MemoryStore keeps sessions in process memory
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]models.Session)}
}

func (s *MemoryStore) Create(_ context.Context, session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; exists {
		return ErrDuplicateSession
	}
	s.sessions[session.ID] = session
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return false, nil
	}
	delete(s.sessions, sessionID)
	return true, nil
}

// Len returns the number of stored sessions
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ExpiringStore wraps a SessionStore and treats sessions older than lifetime
// as gone. Expired sessions are deleted when they are read.
type ExpiringStore struct {
	next     SessionStore
	lifetime time.Duration
	now      func() time.Time
}

// NewExpiringStore wraps next. A lifetime of zero or less never expires
// sessions; a nil clock uses time.Now.
func NewExpiringStore(next SessionStore, lifetime time.Duration, now func() time.Time) *ExpiringStore {
	if now == nil {
		now = time.Now
	}
	return &ExpiringStore{next: next, lifetime: lifetime, now: now}
}

func (s *ExpiringStore) Create(ctx context.Context, session models.Session) error {
	return s.next.Create(ctx, session)
}

// Get returns ErrSessionExpired after removing a session that outlived the
// store's lifetime
func (s *ExpiringStore) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	session, err := s.next.Get(ctx, sessionID)
	if err != nil || session == nil {
		return nil, err
	}

	if session.IsExpiredAt(s.now(), s.lifetime) {
		if _, err := s.next.Delete(ctx, sessionID); err != nil {
			return nil, err
		}
		return nil, ErrSessionExpired
	}
	return session, nil
}

func (s *ExpiringStore) Delete(ctx context.Context, sessionID string) (bool, error) {
	return s.next.Delete(ctx, sessionID)
}

// Lifetime returns the configured session lifetime
func (s *ExpiringStore) Lifetime() time.Duration {
	return s.lifetime
}
