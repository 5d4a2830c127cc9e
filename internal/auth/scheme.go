package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"authgate/internal/logger"
	"authgate/internal/models"
)

// Type names an authentication scheme as configured by AUTH_TYPE
type Type string

const (
	TypeNone       Type = ""
	TypeBase       Type = "auth"
	TypeBasic      Type = "basic_auth"
	TypeSession    Type = "session_auth"
	TypeSessionExp Type = "session_exp_auth"
	TypeSessionDB  Type = "session_db_auth"
)

// DefaultCookieName is used when no session cookie name is configured
const DefaultCookieName = "_my_session_id"

var (
	ErrUnknownType     = errors.New("unknown auth type")
	ErrMissingUsers    = errors.New("auth scheme needs a user directory")
	ErrMissingSessions = errors.New("database sessions need a session store")
)

// UserDirectory is the read side of user storage the schemes depend on
type UserDirectory interface {
	SearchUsers(ctx context.Context, attrs map[string]any) ([]models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// Scheme decides which requests need credentials and who sent them
type Scheme interface {
	RequireAuth(path string) bool
	AuthorizationHeader(r *http.Request) string
	SessionCookie(r *http.Request) string
	CurrentUser(r *http.Request) *models.User
}

// SessionScheme is a Scheme that issues and revokes session cookies
type SessionScheme interface {
	Scheme
	CookieName() string
	CreateSession(ctx context.Context, userID int64) (string, error)
	UserIDForSession(ctx context.Context, sessionID string) (int64, error)
	DestroySession(r *http.Request) bool
}

// Base implements the request plumbing shared by every scheme. On its own
// it enforces the path policy but never resolves a user.
type Base struct {
	excluded   []string
	cookieName string
	log        *logger.Logger
}

func NewBase(excluded []string, cookieName string, log *logger.Logger) *Base {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &Base{excluded: excluded, cookieName: cookieName, log: log}
}

func (b *Base) RequireAuth(path string) bool {
	return RequireAuth(path, b.excluded)
}

// AuthorizationHeader returns the raw Authorization header, or "" if absent
func (b *Base) AuthorizationHeader(r *http.Request) string {
	if r == nil {
		return ""
	}
	return r.Header.Get("Authorization")
}

// SessionCookie returns the session cookie value, or "" if absent
func (b *Base) SessionCookie(r *http.Request) string {
	if r == nil {
		return ""
	}
	cookie, err := r.Cookie(b.cookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (b *Base) CurrentUser(*http.Request) *models.User {
	return nil
}

func (b *Base) CookieName() string {
	return b.cookieName
}

// Options configures New
type Options struct {
	Type            Type
	Excluded        []string
	CookieName      string
	SessionDuration time.Duration
	Users           UserDirectory
	// Sessions backs session_db_auth
	Sessions SessionStore
	Logger   *logger.Logger
	Now      func() time.Time
}

// New builds the scheme selected by opts.Type. TypeNone yields a nil scheme,
// which disables the request gate.
func New(opts Options) (Scheme, error) {
	base := NewBase(opts.Excluded, opts.CookieName, opts.Logger)

	switch opts.Type {
	case TypeNone:
		return nil, nil
	case TypeBase:
		return base, nil
	}

	if opts.Users == nil {
		return nil, ErrMissingUsers
	}

	switch opts.Type {
	case TypeBasic:
		return NewBasic(base, opts.Users), nil
	case TypeSession:
		return NewSession(base, NewMemoryStore(), opts.Users, opts.Now), nil
	case TypeSessionExp:
		store := NewExpiringStore(NewMemoryStore(), opts.SessionDuration, opts.Now)
		return NewSession(base, store, opts.Users, opts.Now), nil
	case TypeSessionDB:
		if opts.Sessions == nil {
			return nil, ErrMissingSessions
		}
		store := NewExpiringStore(opts.Sessions, opts.SessionDuration, opts.Now)
		return NewSession(base, store, opts.Users, opts.Now), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, opts.Type)
}
