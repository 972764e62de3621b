package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"videotube_backend/internal/httputil"
	"videotube_backend/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// UserKey is the context key for the authenticated user
const UserKey contextKey = "user"

// TokenVerifier resolves an access token to the user id it was issued for.
type TokenVerifier interface {
	ParseAccessToken(tokenString string) (string, error)
}

// UserLoader loads the account behind a verified token.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// AuthMiddleware verifies the access token and attaches the current user to
// the request context. The accessToken cookie (web) is checked first, then
// the Authorization header (mobile and API clients).
func AuthMiddleware(tokens TokenVerifier, users UserLoader, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractToken(r)
			if tokenString == "" {
				httputil.WriteUnauthorized(w, "Unauthorized request")
				return
			}

			userID, err := tokens.ParseAccessToken(tokenString)
			if err != nil {
				httputil.WriteUnauthorized(w, "Invalid access token")
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				if !errors.Is(err, model.ErrUserNotFound) {
					logger.Error("failed to load authenticated user", zap.String("user_id", userID), zap.Error(err))
				}
				httputil.WriteUnauthorized(w, "Invalid access token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(model.AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// UserFromContext extracts the authenticated user from the request context
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(UserKey).(*model.User)
	return user, ok && user != nil
}
