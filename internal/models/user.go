package models

import "time"

// User represents an account in the system
type User struct {
	ID             int64
	Email          string
	HashedPassword string
	SessionID      *string
	ResetToken     *string
	FirstName      *string
	LastName       *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DisplayName returns the best human-readable name for the user
func (u *User) DisplayName() string {
	first, last := deref(u.FirstName), deref(u.LastName)
	switch {
	case first == "" && last == "":
		return u.Email
	case last == "":
		return first
	case first == "":
		return last
	}
	return first + " " + last
}

// Session represents an authenticated session
type Session struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
}

// ExpiresAt returns the moment the session stops being valid for the given
// lifetime. A zero lifetime never expires and yields the zero time.
func (s *Session) ExpiresAt(lifetime time.Duration) time.Time {
	if lifetime <= 0 {
		return time.Time{}
	}
	return s.CreatedAt.Add(lifetime)
}

// IsExpiredAt checks if the session would be expired at t for the given lifetime
func (s *Session) IsExpiredAt(t time.Time, lifetime time.Duration) bool {
	if lifetime <= 0 {
		return false
	}
	return t.After(s.ExpiresAt(lifetime))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
