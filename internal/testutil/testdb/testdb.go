// Package testdb opens migrated SQLite databases for integration tests.
package testdb

import (
	"context"
	"path/filepath"
	"testing"

	"authgate/internal/config"
	"authgate/internal/database"
	"authgate/internal/testutil"
)

// Open returns a migrated SQLite database in a temp dir. It skips the test
// in short mode.
func Open(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	db, err := database.Open(ctx, config.Database{Type: "sqlite", Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(ctx, testutil.MakeNoopLogger()); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}
