package handlers

import (
	"testing"

	"authgate/internal/security"
)

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	return hash
}
