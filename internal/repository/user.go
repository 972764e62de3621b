package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"videotube_backend/internal/model"
)

const userColumns = `id, username, email, full_name, avatar, cover_image, password, refresh_token, created_at, updated_at`

// userRepository implements UserRepository using sqlx.
// Queries are written with ? placeholders and rebound for the driver in use.
type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = u.CreatedAt

	query := r.db.Rebind(`
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		u.ID,
		u.Username,
		u.Email,
		u.FullName,
		u.Avatar,
		u.CoverImage,
		u.Password,
		u.RefreshToken,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrUserExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)

	var u model.User
	err := r.db.GetContext(ctx, &u, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &u, nil
}

// GetByUsernameOrEmail retrieves the first user whose username or email matches
func (r *userRepository) GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	var conds []string
	var args []interface{}
	if username != "" {
		conds = append(conds, "username = ?")
		args = append(args, username)
	}
	if email != "" {
		conds = append(conds, "email = ?")
		args = append(args, email)
	}
	if len(conds) == 0 {
		return nil, model.ErrUserNotFound
	}

	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE ` +
		strings.Join(conds, " OR ") + ` ORDER BY created_at LIMIT 1`)

	var u model.User
	err := r.db.GetContext(ctx, &u, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by username or email: %w", err)
	}

	return &u, nil
}

// Update overwrites the non-nil fields of update and returns the stored user
func (r *userRepository) Update(ctx context.Context, id string, update model.UserUpdate) (*model.User, error) {
	if update.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	var sets []string
	var args []interface{}
	add := func(column string, v *string) {
		if v != nil {
			sets = append(sets, column+" = ?")
			args = append(args, *v)
		}
	}
	add("full_name", update.FullName)
	add("email", update.Email)
	add("avatar", update.Avatar)
	add("cover_image", update.CoverImage)
	add("password", update.PasswordHash)
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	query := r.db.Rebind(`UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, model.ErrUserExists
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if err := requireOneRow(result); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// SetRefreshToken stores or clears (nil) the user's current refresh token
func (r *userRepository) SetRefreshToken(ctx context.Context, id string, token *string) error {
	query := r.db.Rebind(`UPDATE users SET refresh_token = ?, updated_at = ? WHERE id = ?`)
	result, err := r.db.ExecContext(ctx, query, token, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set refresh token: %w", err)
	}
	return requireOneRow(result)
}

func requireOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// isUniqueViolation recognises unique-constraint failures from Postgres
// (SQLSTATE 23505) and SQLite.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
