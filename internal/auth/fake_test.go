package auth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"authgate/internal/models"
	"authgate/internal/security"
)

// fakeDirectory is an in-memory UserDirectory
type fakeDirectory struct {
	mu    sync.Mutex
	users []models.User
	err   error
}

func (d *fakeDirectory) add(t *testing.T, id int64, email, password string) models.User {
	t.Helper()
	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	user := models.User{ID: id, Email: email, HashedPassword: hash}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.users = append(d.users, user)
	return user
}

func (d *fakeDirectory) SearchUsers(_ context.Context, attrs map[string]any) ([]models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}

	var found []models.User
	for _, u := range d.users {
		if email, ok := attrs["email"]; ok && u.Email != email {
			continue
		}
		found = append(found, u)
	}
	return found, nil
}

func (d *fakeDirectory) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}

	for _, u := range d.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, nil
}

var errBackend = errors.New("backend down")

// failingStore fails every call
type failingStore struct{}

func (failingStore) Create(context.Context, models.Session) error { return errBackend }
func (failingStore) Get(context.Context, string) (*models.Session, error) {
	return nil, errBackend
}
func (failingStore) Delete(context.Context, string) (bool, error) { return false, errBackend }
