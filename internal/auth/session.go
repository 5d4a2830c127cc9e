package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"authgate/internal/models"
	"authgate/internal/security"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrInvalidUserID   = errors.New("invalid user id")
)

// Session authenticates requests by a session cookie looked up in a
// SessionStore
type Session struct {
	*Base
	store SessionStore
	users UserDirectory
	now   func() time.Time
}

func NewSession(base *Base, store SessionStore, users UserDirectory, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{Base: base, store: store, users: users, now: now}
}

// CreateSession stores a new session for userID and returns its ID
func (s *Session) CreateSession(ctx context.Context, userID int64) (string, error) {
	if userID <= 0 {
		return "", ErrInvalidUserID
	}

	session := models.Session{
		ID:        security.GenerateSessionID(),
		UserID:    userID,
		CreatedAt: s.now(),
	}
	if err := s.store.Create(ctx, session); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return session.ID, nil
}

// UserIDForSession returns the user owning sessionID
func (s *Session) UserIDForSession(ctx context.Context, sessionID string) (int64, error) {
	if sessionID == "" {
		return 0, ErrSessionNotFound
	}

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	if session == nil {
		return 0, ErrSessionNotFound
	}
	return session.UserID, nil
}

func (s *Session) CurrentUser(r *http.Request) *models.User {
	if r == nil {
		return nil
	}

	userID, err := s.UserIDForSession(r.Context(), s.SessionCookie(r))
	if err != nil {
		logResolveFailure(s.Base, "session rejected", err)
		return nil
	}

	user, err := s.users.GetUserByID(r.Context(), userID)
	if err != nil {
		logResolveFailure(s.Base, "session user lookup failed", err)
		return nil
	}
	return user
}

// DestroySession removes the session named by the request cookie and
// reports whether one was removed
func (s *Session) DestroySession(r *http.Request) bool {
	sessionID := s.SessionCookie(r)
	if sessionID == "" {
		return false
	}

	deleted, err := s.store.Delete(r.Context(), sessionID)
	if err != nil {
		logResolveFailure(s.Base, "session delete failed", err)
		return false
	}
	return deleted
}
