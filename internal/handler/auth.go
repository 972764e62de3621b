package handler

import (
	"net/http"

	"videotube_backend/internal/config"
	"videotube_backend/internal/httputil"
	"videotube_backend/internal/model"
	"videotube_backend/internal/service"
)

// AuthHandler groups the session endpoints: register, login, logout, refresh.
type AuthHandler struct {
	userService *service.UserService
	cookies     cookieOptions
	tempDir     string
}

// NewAuthHandler wires dependencies for authentication endpoints.
func NewAuthHandler(userService *service.UserService, creds *service.CredentialService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		cookies: cookieOptions{
			secure:     cfg.CookieSecure,
			accessTTL:  creds.AccessTokenTTL(),
			refreshTTL: creds.RefreshTokenTTL(),
		},
		tempDir: cfg.UploadTempDir,
	}
}

// Register handles multipart sign-up with a required avatar and optional cover image.
// POST /users/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) error {
	maxFormSize := int64(model.MaxAvatarSizeBytes+model.MaxCoverImageSizeBytes) + formOverhead
	if err := parseMultipart(w, r, maxFormSize); err != nil {
		return err
	}
	defer r.MultipartForm.RemoveAll()

	avatarPath, err := stageFile(r, "avatar", h.tempDir)
	if err != nil {
		return err
	}
	coverPath, err := stageFile(r, "coverImage", h.tempDir)
	if err != nil {
		removeStaged(avatarPath)
		return err
	}
	defer removeStaged(avatarPath, coverPath)

	user, err := h.userService.Register(r.Context(), &model.RegisterRequest{
		FullName:       r.FormValue("fullName"),
		Email:          r.FormValue("email"),
		Username:       r.FormValue("username"),
		Password:       r.FormValue("password"),
		AvatarPath:     avatarPath,
		CoverImagePath: coverPath,
	})
	if err != nil {
		return err
	}

	httputil.WriteSuccess(w, http.StatusCreated, user, "User registered successfully")
	return nil
}

// Login handles user login
// POST /users/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) error {
	var req model.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	res, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		return err
	}

	h.cookies.setSession(w, &model.TokenPair{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken})
	httputil.WriteSuccess(w, http.StatusOK, res, "User logged in successfully")
	return nil
}

// Logout handles user logout
// POST /users/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	if err := h.userService.Logout(r.Context(), user.ID); err != nil {
		return err
	}

	h.cookies.clearSession(w)
	httputil.WriteSuccess(w, http.StatusOK, nil, "User logged out")
	return nil
}

// RefreshToken exchanges the refresh token from the cookie or the body for a new pair.
// POST /users/refresh-token
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) error {
	var token string
	if cookie, err := r.Cookie(model.RefreshTokenCookie); err == nil {
		token = cookie.Value
	}
	if token == "" {
		// an unreadable body counts as no token at all
		var req model.RefreshRequest
		if err := decodeJSON(w, r, &req); err == nil {
			token = req.RefreshToken
		}
	}

	pair, err := h.userService.RefreshTokens(r.Context(), token)
	if err != nil {
		return err
	}

	h.cookies.setSession(w, pair)
	httputil.WriteSuccess(w, http.StatusOK, pair, "Access token refreshed")
	return nil
}
