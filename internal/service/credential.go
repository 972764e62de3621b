package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"videotube_backend/internal/config"
	"videotube_backend/internal/model"
)

const tokenIssuer = "videotube"

// CredentialOptions are the secrets and lifetimes the credential service is built with.
type CredentialOptions struct {
	BcryptCost         int
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

// CredentialOptionsFromConfig maps the loaded configuration onto CredentialOptions.
func CredentialOptionsFromConfig(cfg *config.Config) CredentialOptions {
	return CredentialOptions{
		BcryptCost:         cfg.BcryptCost,
		AccessTokenSecret:  cfg.AccessTokenSecret,
		RefreshTokenSecret: cfg.RefreshTokenSecret,
		AccessTokenTTL:     time.Duration(cfg.AccessTokenMaxAge) * time.Second,
		RefreshTokenTTL:    time.Duration(cfg.RefreshTokenMaxAge) * time.Second,
	}
}

// CredentialService hashes passwords and signs/verifies tokens. It holds no
// per-user state; callers pass the stored hash or the user's identity in.
type CredentialService struct {
	cost          int
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewCredentialService(opts CredentialOptions) (*CredentialService, error) {
	if opts.AccessTokenSecret == "" || opts.RefreshTokenSecret == "" {
		return nil, errors.New("token secrets must not be empty")
	}
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range", cost)
	}
	if opts.AccessTokenTTL <= 0 || opts.RefreshTokenTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}

	return &CredentialService{
		cost:          cost,
		accessSecret:  []byte(opts.AccessTokenSecret),
		refreshSecret: []byte(opts.RefreshTokenSecret),
		accessTTL:     opts.AccessTokenTTL,
		refreshTTL:    opts.RefreshTokenTTL,
	}, nil
}

// AccessClaims is the access token payload.
type AccessClaims struct {
	UserID   string `json:"_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

// RefreshClaims is the refresh token payload; it only identifies the user.
type RefreshClaims struct {
	UserID string `json:"_id"`
	jwt.RegisteredClaims
}

func (s *CredentialService) AccessTokenTTL() time.Duration  { return s.accessTTL }
func (s *CredentialService) RefreshTokenTTL() time.Duration { return s.refreshTTL }

// HashPassword hashes a plaintext password with bcrypt.
func (s *CredentialService) HashPassword(password string) (string, error) {
	if len(password) > 72 {
		// bcrypt silently truncates longer input
		return "", errors.New("password must be 72 bytes or fewer")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword returns model.ErrInvalidCredentials when password does not match hash.
func (s *CredentialService) VerifyPassword(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return model.ErrInvalidCredentials
	}
	return fmt.Errorf("failed to compare password hash: %w", err)
}

// GenerateTokenPair issues a fresh access and refresh token for user.
func (s *CredentialService) GenerateTokenPair(user *model.User) (*model.TokenPair, error) {
	accessToken, err := s.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := s.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &model.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *CredentialService) GenerateAccessToken(user *model.User) (string, error) {
	claims := AccessClaims{
		UserID:           user.ID,
		Email:            user.Email,
		Username:         user.Username,
		FullName:         user.FullName,
		RegisteredClaims: s.registered(user.ID, s.accessTTL),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
}

func (s *CredentialService) GenerateRefreshToken(userID string) (string, error) {
	claims := RefreshClaims{
		UserID:           userID,
		RegisteredClaims: s.registered(userID, s.refreshTTL),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refreshSecret)
}

// ParseAccessToken verifies signature and expiry and returns the user id.
func (s *CredentialService) ParseAccessToken(tokenString string) (string, error) {
	var claims AccessClaims
	if err := s.parse(tokenString, &claims, s.accessSecret); err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrAccessTokenInvalid, err)
	}
	if claims.UserID == "" {
		return "", model.ErrAccessTokenInvalid
	}
	return claims.UserID, nil
}

// ParseRefreshToken verifies signature and expiry and returns the user id.
func (s *CredentialService) ParseRefreshToken(tokenString string) (string, error) {
	var claims RefreshClaims
	if err := s.parse(tokenString, &claims, s.refreshSecret); err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrRefreshTokenInvalid, err)
	}
	if claims.UserID == "" {
		return "", model.ErrRefreshTokenInvalid
	}
	return claims.UserID, nil
}

func (s *CredentialService) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		// jti keeps tokens issued within the same second distinct
		ID: newID(),
	}
}

func (s *CredentialService) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("token is not valid")
	}
	return nil
}
