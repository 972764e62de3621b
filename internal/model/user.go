package model

import (
	"errors"
	"time"
)

// User represents an account. Password and RefreshToken are hidden from JSON output.
type User struct {
	ID           string    `db:"id" bson:"_id" json:"_id"`
	Username     string    `db:"username" bson:"username" json:"username"`
	Email        string    `db:"email" bson:"email" json:"email"`
	FullName     string    `db:"full_name" bson:"fullName" json:"fullName"`
	Avatar       string    `db:"avatar" bson:"avatar" json:"avatar"`
	CoverImage   string    `db:"cover_image" bson:"coverImage" json:"coverImage"`
	Password     string    `db:"password" bson:"password" json:"-"`
	RefreshToken *string   `db:"refresh_token" bson:"refreshToken,omitempty" json:"-"`
	CreatedAt    time.Time `db:"created_at" bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" bson:"updatedAt" json:"updatedAt"`
}

// UserUpdate carries the fields to overwrite; nil fields are left untouched.
type UserUpdate struct {
	FullName     *string
	Email        *string
	Avatar       *string
	CoverImage   *string
	PasswordHash *string
}

// IsEmpty reports whether the update would change nothing.
func (u UserUpdate) IsEmpty() bool {
	return u.FullName == nil && u.Email == nil && u.Avatar == nil && u.CoverImage == nil && u.PasswordHash == nil
}

// RegisterRequest is the registration form after the uploaded files were staged on disk.
type RegisterRequest struct {
	FullName string
	Email    string
	Username string
	Password string

	AvatarPath     string // local temp file, required
	CoverImagePath string // local temp file, optional
}

// LoginRequest is the request body for POST /users/login
type LoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// ChangePasswordRequest is the request body for POST /users/change-password
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// UpdateAccountRequest is the request body for PATCH /users/update-account
type UpdateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists is returned when the username or email is already taken
	ErrUserExists = errors.New("user with email or username already exists")

	// ErrInvalidCredentials is returned when a password does not match the stored hash
	ErrInvalidCredentials = errors.New("invalid credentials")
)
