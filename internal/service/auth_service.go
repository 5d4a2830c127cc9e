package service

import (
	"context"
	"errors"
	"fmt"

	"authgate/internal/logger"
	"authgate/internal/models"
	"authgate/internal/repository"
	"authgate/internal/security"
	"authgate/internal/validation"
)

var (
	ErrEmailTaken        = errors.New("email already registered")
	ErrUserNotFound      = errors.New("user not found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidResetToken = errors.New("invalid reset token")
)

// UserStore is the user persistence the services need
type UserStore interface {
	AddUser(ctx context.Context, email, hashedPassword string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserBy(ctx context.Context, attrs map[string]any) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]models.User, error)
	CountUsers(ctx context.Context) (int, error)
	UpdateUser(ctx context.Context, id int64, attrs map[string]any) error
	ResetPassword(ctx context.Context, token, hashedPassword string) (bool, error)
	DeleteUser(ctx context.Context, id int64) error
}

// AuthService handles registration, login sessions stored on the user row
// and password resets
type AuthService struct {
	users UserStore
	email *EmailService
	log   *logger.Logger
}

// NewAuthService creates a new auth service. email may be nil.
func NewAuthService(users UserStore, email *EmailService, log *logger.Logger) *AuthService {
	return &AuthService{users: users, email: email, log: log}
}

// RegisterUser creates a user with a hashed password
func (s *AuthService) RegisterUser(ctx context.Context, email, password string) (*models.User, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}

	existing, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.AddUser(ctx, email, hash)
	if err != nil {
		// A concurrent registration can win the unique index.
		if existing, lookupErr := s.users.GetUserByEmail(ctx, email); lookupErr == nil && existing != nil {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if s.email.IsEnabled() {
		if err := s.email.SendWelcomeEmail(ctx, user.Email, user.DisplayName()); err != nil {
			s.log.Warn("failed to send welcome email", "user_id", user.ID, "error", err)
		}
	}
	return user, nil
}

// ValidLogin reports whether password matches the user registered under email
func (s *AuthService) ValidLogin(ctx context.Context, email, password string) bool {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		s.log.Error("failed to look up user for login", "error", err)
		return false
	}
	if user == nil {
		return false
	}
	return security.CheckPassword(password, user.HashedPassword)
}

// CreateSession stores a fresh session ID on the user and returns it
func (s *AuthService) CreateSession(ctx context.Context, email string) (string, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return "", ErrUserNotFound
	}

	sessionID := security.GenerateSessionID()
	if err := s.users.UpdateUser(ctx, user.ID, map[string]any{"session_id": sessionID}); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return sessionID, nil
}

// GetUserFromSessionID returns the user holding sessionID
func (s *AuthService) GetUserFromSessionID(ctx context.Context, sessionID string) (*models.User, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}

	user, err := s.users.FindUserBy(ctx, map[string]any{"session_id": sessionID})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return user, nil
}

// DestroySession clears the user's session ID
func (s *AuthService) DestroySession(ctx context.Context, userID int64) error {
	err := s.users.UpdateUser(ctx, userID, map[string]any{"session_id": nil})
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// GetResetPasswordToken issues a reset token for the user registered under
// email, replacing any outstanding one. The token is also mailed when email
// delivery is configured.
func (s *AuthService) GetResetPasswordToken(ctx context.Context, email string) (string, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return "", ErrUserNotFound
	}

	token := security.GenerateResetToken()
	if err := s.users.UpdateUser(ctx, user.ID, map[string]any{"reset_token": token}); err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}

	if s.email.IsEnabled() {
		if err := s.email.SendPasswordResetEmail(ctx, user.Email, user.DisplayName(), token); err != nil {
			s.log.Warn("failed to send reset email", "user_id", user.ID, "error", err)
		}
	}
	return token, nil
}

// UpdatePassword consumes token and sets a new password for its owner
func (s *AuthService) UpdatePassword(ctx context.Context, token, password string) error {
	if token == "" {
		return ErrInvalidResetToken
	}
	if err := validation.ValidatePassword(password); err != nil {
		return err
	}

	_, err := s.users.FindUserBy(ctx, map[string]any{"reset_token": token})
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return fmt.Errorf("failed to find reset token: %w", err)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	updated, err := s.users.ResetPassword(ctx, token, hash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if !updated {
		return ErrInvalidResetToken
	}
	return nil
}
