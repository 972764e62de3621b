package model

import "errors"

// Cookie names shared by the handlers and the auth middleware.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// Refresh token errors
var (
	ErrRefreshTokenMissing = errors.New("refresh token missing")
	ErrRefreshTokenInvalid = errors.New("refresh token invalid")
	ErrRefreshTokenReused  = errors.New("refresh token expired or already used")
	ErrAccessTokenInvalid  = errors.New("access token invalid")
)

// TokenPair represents both tokens returned after login/refresh
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResponse is the data payload returned after a successful login
type LoginResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshRequest is the optional request body for POST /users/refresh-token
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}
