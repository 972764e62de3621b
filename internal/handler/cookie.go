package handler

import (
	"net/http"
	"time"

	"videotube_backend/internal/model"
)

// cookieOptions are the attributes shared by both session cookies.
type cookieOptions struct {
	secure     bool
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func (o cookieOptions) setSession(w http.ResponseWriter, pair *model.TokenPair) {
	http.SetCookie(w, o.cookie(model.AccessTokenCookie, pair.AccessToken, int(o.accessTTL.Seconds())))
	http.SetCookie(w, o.cookie(model.RefreshTokenCookie, pair.RefreshToken, int(o.refreshTTL.Seconds())))
}

func (o cookieOptions) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, o.cookie(model.AccessTokenCookie, "", -1))
	http.SetCookie(w, o.cookie(model.RefreshTokenCookie, "", -1))
}

func (o cookieOptions) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   o.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
