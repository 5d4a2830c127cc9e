package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"authgate/internal/database"
	"authgate/internal/logger"
	"authgate/internal/models"
	"authgate/internal/repository"
)

const backupVersion = "1.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version      string          `json:"version"`
	ExportedAt   time.Time       `json:"exported_at"`
	DatabaseType string          `json:"database_type"`
	Users        []UserBackup    `json:"users"`
	Sessions     []SessionBackup `json:"sessions"`
}

// UserBackup represents a user record for backup. Session IDs and reset
// tokens are not exported.
type UserBackup struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"hashed_password"`
	FirstName      *string   `json:"first_name"`
	LastName       *string   `json:"last_name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SessionBackup represents a persisted session for backup
type SessionBackup struct {
	SessionID string    `json:"session_id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ImportStats counts what an import wrote
type ImportStats struct {
	UsersImported    int
	UsersSkipped     int
	SessionsImported int
	SessionsSkipped  int
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db  *database.DB
	log *logger.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, log *logger.Logger) *BackupService {
	return &BackupService{db: db, log: log}
}

// Export writes every user and persisted session to w as JSON
func (s *BackupService) Export(ctx context.Context, w io.Writer) (*BackupData, error) {
	backup := &BackupData{
		Version:      backupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.Dialect.DriverName(),
	}

	users, err := repository.NewUserRepository(s.db).GetAllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	for _, u := range users {
		backup.Users = append(backup.Users, UserBackup{
			ID:             u.ID,
			Email:          u.Email,
			HashedPassword: u.HashedPassword,
			FirstName:      u.FirstName,
			LastName:       u.LastName,
			CreatedAt:      u.CreatedAt,
			UpdatedAt:      u.UpdatedAt,
		})
	}

	sessions, err := repository.NewSessionRepository(s.db).GetAllSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export sessions: %w", err)
	}
	for _, sess := range sessions {
		backup.Sessions = append(backup.Sessions, SessionBackup{
			SessionID: sess.ID,
			UserID:    sess.UserID,
			CreatedAt: sess.CreatedAt,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	s.log.Info("database exported", "users", len(backup.Users), "sessions", len(backup.Sessions))
	return backup, nil
}

// Import restores users and sessions from r in one transaction. Users whose
// email already exists are kept as they are, and their backed-up sessions are
// dropped so a backup can never grant access to an account it did not create.
func (s *BackupService) Import(ctx context.Context, r io.Reader) (ImportStats, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return ImportStats{}, fmt.Errorf("failed to decode backup: %w", err)
	}
	s.log.Info("importing backup", "version", backup.Version, "exported_at", backup.ExportedAt)

	var stats ImportStats
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		stats = ImportStats{}
		users := repository.NewUserRepository(tx)
		sessions := repository.NewSessionRepository(tx)

		// IDs are reassigned on insert, so sessions are remapped by old ID.
		newIDs := make(map[int64]int64, len(backup.Users))
		for _, u := range backup.Users {
			existing, err := users.GetUserByEmail(ctx, u.Email)
			if err != nil {
				return err
			}
			if existing != nil {
				stats.UsersSkipped++
				continue
			}

			user := &models.User{
				Email:          u.Email,
				HashedPassword: u.HashedPassword,
				FirstName:      u.FirstName,
				LastName:       u.LastName,
			}
			if err := users.CreateUser(ctx, user); err != nil {
				return fmt.Errorf("failed to import user %s: %w", u.Email, err)
			}
			newIDs[u.ID] = user.ID
			stats.UsersImported++
		}

		for _, sess := range backup.Sessions {
			userID, ok := newIDs[sess.UserID]
			if !ok {
				s.log.Warn("skipping session of a user not imported", "user_id", sess.UserID)
				stats.SessionsSkipped++
				continue
			}
			existing, err := sessions.Get(ctx, sess.SessionID)
			if err != nil {
				return err
			}
			if existing != nil {
				stats.SessionsSkipped++
				continue
			}
			if err := sessions.Create(ctx, models.Session{ID: sess.SessionID, UserID: userID, CreatedAt: sess.CreatedAt}); err != nil {
				return err
			}
			stats.SessionsImported++
		}
		return nil
	})
	if err != nil {
		return ImportStats{}, fmt.Errorf("failed to import backup: %w", err)
	}

	s.log.Info("database import completed",
		"users_imported", stats.UsersImported,
		"users_skipped", stats.UsersSkipped,
		"sessions_imported", stats.SessionsImported,
		"sessions_skipped", stats.SessionsSkipped,
	)
	return stats, nil
}

// PurgeSessions removes persisted sessions older than lifetime
func (s *BackupService) PurgeSessions(ctx context.Context, lifetime time.Duration, now time.Time) (int64, error) {
	if lifetime <= 0 {
		return 0, nil
	}
	removed, err := repository.NewSessionRepository(s.db).DeleteSessionsCreatedBefore(ctx, now.Add(-lifetime))
	if err != nil {
		return 0, err
	}
	s.log.Info("purged expired sessions", "removed", removed)
	return removed, nil
}
