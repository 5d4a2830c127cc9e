package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"authgate/internal/database"
	"authgate/internal/models"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidAttribute = errors.New("invalid attribute")
)

const userColumns = "id, email, hashed_password, session_id, reset_token, first_name, last_name, created_at, updated_at"

// userAttributes lists the columns that may be used to search or update users
var userAttributes = map[string]bool{
	"id":              true,
	"email":           true,
	"hashed_password": true,
	"session_id":      true,
	"reset_token":     true,
	"first_name":      true,
	"last_name":       true,
}

// UserRepository handles database operations for users
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// AddUser inserts a new user with only the required columns set
func (r *UserRepository) AddUser(ctx context.Context, email, hashedPassword string) (*models.User, error) {
	user := &models.User{Email: email, HashedPassword: hashedPassword}
	if err := r.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser inserts user and fills in its ID and timestamps
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO users (email, hashed_password, session_id, reset_token, first_name, last_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		user.Email,
		user.HashedPassword,
		user.SessionID,
		user.ResetToken,
		user.FirstName,
		user.LastName,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetUserByID retrieves a user by ID, returning nil when no row matches
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email address, returning nil when no row matches
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := r.FindUserBy(ctx, map[string]any{"email": email})
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return user, err
}

// FindUserBy returns the first user whose columns equal every given
// attribute. It fails with ErrInvalidAttribute for an empty filter or an
// unknown column, and with ErrNotFound when nothing matches.
func (r *UserRepository) FindUserBy(ctx context.Context, attrs map[string]any) (*models.User, error) {
	where, args, err := whereClause(attrs)
	if err != nil {
		return nil, err
	}

	query := "SELECT " + userColumns + " FROM users WHERE " + where + " ORDER BY id LIMIT 1"
	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// SearchUsers returns every user matching the attributes, ordered by ID
func (r *UserRepository) SearchUsers(ctx context.Context, attrs map[string]any) ([]models.User, error) {
	where, args, err := whereClause(attrs)
	if err != nil {
		return nil, err
	}
	return r.queryUsers(ctx, "SELECT "+userColumns+" FROM users WHERE "+where+" ORDER BY id", args...)
}

// GetAllUsers retrieves all users
func (r *UserRepository) GetAllUsers(ctx context.Context) ([]models.User, error) {
	return r.queryUsers(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
}

// CountUsers returns the number of stored users
func (r *UserRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// UpdateUser sets the given attributes on the user with the given ID.
// A nil value stores NULL.
func (r *UserRepository) UpdateUser(ctx context.Context, id int64, attrs map[string]any) error {
	if len(attrs) == 0 {
		return nil
	}

	keys, err := attributeKeys(attrs)
	if err != nil {
		return err
	}

	user, err := r.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}

	sets := make([]string, 0, len(keys)+1)
	args := make([]any, 0, len(keys)+2)
	for _, key := range keys {
		sets = append(sets, key+" = ?")
		args = append(args, attrs[key])
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	query := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// ResetPassword replaces the password of the user holding token and clears
// the token in one statement. It reports whether a user held the token.
func (r *UserRepository) ResetPassword(ctx context.Context, token, hashedPassword string) (bool, error) {
	query := `
		UPDATE users
		SET hashed_password = ?, reset_token = NULL, updated_at = ?
		WHERE reset_token = ?
	`
	result, err := r.db.ExecContext(ctx, query, hashedPassword, time.Now().UTC(), token)
	if err != nil {
		return false, fmt.Errorf("failed to reset password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read reset result: %w", err)
	}
	return rows > 0, nil
}

// DeleteUser deletes a user and, through the foreign key, its sessions
func (r *UserRepository) DeleteUser(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args ...any) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var sessionID, resetToken, firstName, lastName sql.NullString
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.HashedPassword,
		&sessionID,
		&resetToken,
		&firstName,
		&lastName,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.SessionID = nullableString(sessionID)
	user.ResetToken = nullableString(resetToken)
	user.FirstName = nullableString(firstName)
	user.LastName = nullableString(lastName)
	return &user, nil
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

// attributeKeys validates attrs against the user columns and returns the keys
// sorted so generated SQL is stable
func attributeKeys(attrs map[string]any) ([]string, error) {
	if len(attrs) == 0 {
		return nil, fmt.Errorf("%w: no attributes given", ErrInvalidAttribute)
	}

	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		if !userAttributes[key] {
			return nil, fmt.Errorf("%w: %s", ErrInvalidAttribute, key)
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func whereClause(attrs map[string]any) (string, []any, error) {
	keys, err := attributeKeys(attrs)
	if err != nil {
		return "", nil, err
	}

	conds := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, key := range keys {
		if attrs[key] == nil {
			conds = append(conds, key+" IS NULL")
			continue
		}
		conds = append(conds, key+" = ?")
		args = append(args, attrs[key])
	}
	return strings.Join(conds, " AND "), args, nil
}
