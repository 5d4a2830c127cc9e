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

// CreateUserInput holds the fields accepted when creating a user
type CreateUserInput struct {
	Email     string
	Password  string
	FirstName *string
	LastName  *string
}

// UpdateUserInput holds the profile fields a user may change. Only fields
// marked as set are written; a set nil value clears the column.
type UpdateUserInput struct {
	FirstName    *string
	LastName     *string
	SetFirstName bool
	SetLastName  bool
}

// UserService manages user records for the API
type UserService struct {
	users UserStore
	log   *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(users UserStore, log *logger.Logger) *UserService {
	return &UserService{users: users, log: log}
}

// ListUsers returns all users
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.GetAllUsers(ctx)
}

// CountUsers returns the number of users
func (s *UserService) CountUsers(ctx context.Context) (int, error) {
	return s.users.CountUsers(ctx)
}

// GetUser returns the user with id or ErrUserNotFound
func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// CreateUser validates input and stores a new user
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	if err := validation.ValidateEmail(input.Email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(input.Password); err != nil {
		return nil, err
	}
	if err := validateNames(input.FirstName, input.LastName); err != nil {
		return nil, err
	}

	existing, err := s.users.GetUserByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:          input.Email,
		HashedPassword: hash,
		FirstName:      input.FirstName,
		LastName:       input.LastName,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("user created", "user_id", user.ID)
	return user, nil
}

// UpdateUser changes the user's names and returns the stored result
func (s *UserService) UpdateUser(ctx context.Context, id int64, input UpdateUserInput) (*models.User, error) {
	attrs := make(map[string]any, 2)
	if input.SetFirstName {
		attrs["first_name"] = nullable(input.FirstName)
	}
	if input.SetLastName {
		attrs["last_name"] = nullable(input.LastName)
	}
	if err := validateNames(input.FirstName, input.LastName); err != nil {
		return nil, err
	}

	if len(attrs) == 0 {
		return s.GetUser(ctx, id)
	}

	err := s.users.UpdateUser(ctx, id, attrs)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, id)
}

// DeleteUser removes the user and its sessions
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	err := s.users.DeleteUser(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	s.log.Info("user deleted", "user_id", id)
	return nil
}

func validateNames(first, last *string) error {
	if first != nil {
		if err := validation.ValidateName("first_name", *first); err != nil {
			return err
		}
	}
	if last != nil {
		if err := validation.ValidateName("last_name", *last); err != nil {
			return err
		}
	}
	return nil
}

// nullable turns a nil pointer into an untyped nil so it is stored as NULL
func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
