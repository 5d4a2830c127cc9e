package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"authgate/internal/config"
)

// Dialect hides the differences between the supported SQL backends. Queries
// are written with ? placeholders and rewritten per backend.
type Dialect interface {
	DriverName() string
	DSN(config DialectConfig) string
	RewriteQuery(query string) string

	// SupportsLastInsertId is false for drivers that need RETURNING id
	SupportsLastInsertId() bool

	// ConfigureConnection tunes the pool once the connection is open
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir names the directory under migrations/ for this backend
	MigrationsSubdir() string
	GooseDialect() string
}

// DialectConfig carries the connection target. SQLite uses Path, the
// network databases use URL.
type DialectConfig struct {
	Path string
	URL  string
}

// DialectFor maps a configured database type onto its dialect and DSN parameters
func DialectFor(cfg config.Database) (Dialect, DialectConfig, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "postgres", "postgresql":
		return NewPostgresDialect(), DialectConfig{URL: cfg.URL}, nil
	case "mysql":
		return NewMySQLDialect(), DialectConfig{URL: cfg.URL}, nil
	case "sqlite", "sqlite3", "":
		return NewSQLiteDialect(), DialectConfig{Path: cfg.Path}, nil
	}
	return nil, DialectConfig{}, fmt.Errorf("unsupported database type: %s", cfg.Type)
}

// numberPlaceholders turns each ? into $1, $2, ... in order. A ? inside a
// single-quoted literal is left alone; '' escapes are handled by toggling.
func numberPlaceholders(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	quoted := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			quoted = !quoted
		case c == '?' && !quoted:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
