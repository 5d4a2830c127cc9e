package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"authgate/internal/models"
	"authgate/internal/security"
)

var (
	ErrUnknownUser   = errors.New("no user for email")
	ErrWrongPassword = errors.New("wrong password")
)

// Basic authenticates requests carrying "Authorization: Basic" credentials
type Basic struct {
	*Base
	users UserDirectory
}

func NewBasic(base *Base, users UserDirectory) *Basic {
	return &Basic{Base: base, users: users}
}

// ResolveUser returns the first user registered under email whose password
// matches
func (b *Basic) ResolveUser(ctx context.Context, email, password string) (*models.User, error) {
	users, err := b.users.SearchUsers(ctx, map[string]any{"email": email})
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	if len(users) == 0 {
		return nil, ErrUnknownUser
	}

	user := users[0]
	if !security.CheckPassword(password, user.HashedPassword) {
		return nil, ErrWrongPassword
	}
	return &user, nil
}

// Resolve runs the whole credential pipeline and reports the first step
// that failed
func (b *Basic) Resolve(r *http.Request) (*models.User, error) {
	encoded, err := ExtractBase64(b.AuthorizationHeader(r))
	if err != nil {
		return nil, err
	}
	decoded, err := DecodeBase64(encoded)
	if err != nil {
		return nil, err
	}
	email, password, err := ExtractCredentials(decoded)
	if err != nil {
		return nil, err
	}
	return b.ResolveUser(r.Context(), email, password)
}

func (b *Basic) CurrentUser(r *http.Request) *models.User {
	if r == nil {
		return nil
	}
	user, err := b.Resolve(r)
	if err != nil {
		logResolveFailure(b.Base, "basic auth rejected", err)
		return nil
	}
	return user
}

// credentialErrors are client mistakes rather than failures worth alerting on
var credentialErrors = []error{
	ErrNotBasic,
	ErrInvalidBase64,
	ErrMalformedCredentials,
	ErrUnknownUser,
	ErrWrongPassword,
	ErrSessionNotFound,
	ErrSessionExpired,
}

func logResolveFailure(b *Base, msg string, err error) {
	if b.log == nil {
		return
	}
	for _, target := range credentialErrors {
		if errors.Is(err, target) {
			b.log.Debug(msg, "reason", err)
			return
		}
	}
	b.log.Error(msg, "error", err)
}
