package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"videotube_backend/internal/handler"
	"videotube_backend/internal/httputil"
	authmw "videotube_backend/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler *handler.AuthHandler
	UserHandler *handler.UserHandler
	Tokens      authmw.TokenVerifier
	Users       authmw.UserLoader
	Logger      *zap.Logger
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(authmw.RequestLogger(cfg.Logger))
	r.Use(authmw.Recoverer(cfg.Logger))

	h := func(fn httputil.HandlerFunc) http.HandlerFunc {
		return httputil.Handle(cfg.Logger, fn)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/register", h(cfg.AuthHandler.Register))
		r.Post("/login", h(cfg.AuthHandler.Login))
		r.Post("/refresh-token", h(cfg.AuthHandler.RefreshToken))

		// Protected routes - require authentication
		r.Group(func(r chi.Router) {
			r.Use(authmw.AuthMiddleware(cfg.Tokens, cfg.Users, cfg.Logger))

			r.Post("/logout", h(cfg.AuthHandler.Logout))
			r.Post("/change-password", h(cfg.UserHandler.ChangePassword))
			r.Get("/current-user", h(cfg.UserHandler.CurrentUser))
			r.Patch("/update-account", h(cfg.UserHandler.UpdateAccount))
			r.Patch("/avatar", h(cfg.UserHandler.UpdateAvatar))
			r.Patch("/cover-image", h(cfg.UserHandler.UpdateCoverImage))
		})
	})

	return r
}
