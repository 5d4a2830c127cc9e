package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"authgate/internal/database"
	"authgate/internal/models"
)

// SessionRepository persists sessions in the user_sessions table
type SessionRepository struct {
	db database.DBTX
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db database.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a session record
func (r *SessionRepository) Create(ctx context.Context, session models.Session) error {
	query := `
		INSERT INTO user_sessions (session_id, user_id, created_at)
		VALUES (?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query, session.ID, session.UserID, session.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID, returning nil when no row matches
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	query := `
		SELECT session_id, user_id, created_at
		FROM user_sessions
		WHERE session_id = ?
	`
	session := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&session.ID,
		&session.UserID,
		&session.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// Delete removes a session and reports whether it existed
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM user_sessions WHERE session_id = ?", sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return rows > 0, nil
}

// GetAllSessions retrieves every persisted session
func (r *SessionRepository) GetAllSessions(ctx context.Context) ([]models.Session, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT session_id, user_id, created_at FROM user_sessions ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var session models.Session
		if err := rows.Scan(&session.ID, &session.UserID, &session.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

// DeleteSessionsCreatedBefore removes sessions created before cutoff and
// returns how many were removed
func (r *SessionRepository) DeleteSessionsCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM user_sessions WHERE created_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read delete result: %w", err)
	}
	return rows, nil
}
