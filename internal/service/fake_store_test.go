package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"authgate/internal/models"
	"authgate/internal/repository"
)

// fakeUserStore is an in-memory UserStore with the repository's semantics
type fakeUserStore struct {
	mu     sync.Mutex
	users  []*models.User
	nextID int64
	err    error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{nextID: 1}
}

func (f *fakeUserStore) AddUser(ctx context.Context, email, hashedPassword string) (*models.User, error) {
	user := &models.User{Email: email, HashedPassword: hashedPassword}
	if err := f.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (f *fakeUserStore) CreateUser(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return errors.New("UNIQUE constraint failed: users.email")
		}
	}

	user.ID = f.nextID
	f.nextID++
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	f.users = append(f.users, &stored)
	return nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := f.FindUserBy(ctx, map[string]any{"email": email})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return user, err
}

func (f *fakeUserStore) FindUserBy(_ context.Context, attrs map[string]any) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if matches(u, attrs) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserStore) GetAllUsers(context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	users := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		users = append(users, *u)
	}
	return users, f.err
}

func (f *fakeUserStore) CountUsers(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users), f.err
}

func (f *fakeUserStore) UpdateUser(_ context.Context, id int64, attrs map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, u := range f.users {
		if u.ID != id {
			continue
		}
		for key, value := range attrs {
			var s *string
			if v, ok := value.(string); ok {
				s = &v
			}
			switch key {
			case "session_id":
				u.SessionID = s
			case "reset_token":
				u.ResetToken = s
			case "first_name":
				u.FirstName = s
			case "last_name":
				u.LastName = s
			default:
				return repository.ErrInvalidAttribute
			}
		}
		return nil
	}
	return repository.ErrNotFound
}

func (f *fakeUserStore) ResetPassword(_ context.Context, token, hashedPassword string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	for _, u := range f.users {
		if u.ResetToken != nil && *u.ResetToken == token {
			u.HashedPassword = hashedPassword
			u.ResetToken = nil
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserStore) DeleteUser(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, u := range f.users {
		if u.ID == id {
			f.users = append(f.users[:i], f.users[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func matches(u *models.User, attrs map[string]any) bool {
	for key, value := range attrs {
		var field *string
		switch key {
		case "email":
			field = &u.Email
		case "session_id":
			field = u.SessionID
		case "reset_token":
			field = u.ResetToken
		default:
			return false
		}
		if field == nil || *field != value {
			return false
		}
	}
	return true
}
