package database

import (
	"context"
	"embed"
	"fmt"
	"path"

	"github.com/pressly/goose/v3"

	"authgate/internal/logger"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies every pending migration for the connection's dialect
func (db *DB) Migrate(ctx context.Context, log *logger.Logger) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(migrationLogger{log: log})

	if err := goose.SetDialect(db.Dialect.GooseDialect()); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	dir := path.Join("migrations", db.Dialect.MigrationsSubdir())
	if err := goose.UpContext(ctx, db.DB, dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// migrationLogger routes goose output through the application logger
type migrationLogger struct {
	log *logger.Logger
}

func (l migrationLogger) Printf(format string, v ...any) {
	l.log.Info(fmt.Sprintf(format, v...), "component", "migrations")
}

func (l migrationLogger) Fatalf(format string, v ...any) {
	l.log.Fatal(fmt.Sprintf(format, v...), "component", "migrations")
}
