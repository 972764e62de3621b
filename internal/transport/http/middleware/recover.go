package middleware

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"videotube_backend/internal/apperror"
	"videotube_backend/internal/httputil"
)

// Recoverer turns a panic into the standard 500 error envelope and logs it
// with the stack trace.
func Recoverer(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("request_id", chimw.GetReqID(r.Context())),
					zap.Stack("stack"),
				)
				httputil.WriteError(w, apperror.Internal("Something went wrong"))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
