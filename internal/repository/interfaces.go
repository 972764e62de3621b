package repository

import (
	"context"

	"videotube_backend/internal/model"
)

// UserRepository is the user data-access object. Implementations return
// model.ErrUserNotFound for missing users and model.ErrUserExists when a
// write would break username/email uniqueness.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetByUsernameOrEmail matches either field; empty arguments are ignored.
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error)
	Update(ctx context.Context, id string, update model.UserUpdate) (*model.User, error)
	// SetRefreshToken stores token in the user's single session slot; nil clears it.
	SetRefreshToken(ctx context.Context, id string, token *string) error
}
