package httputil

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"videotube_backend/internal/apperror"
)

// HandlerFunc is an http.HandlerFunc that reports failure by returning an error.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Handle adapts fn to net/http. Any returned error is written as the error
// envelope; errors that are not *apperror.APIError become a 500 and are logged.
func Handle(logger *zap.Logger, fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		apiErr := apperror.From(err)
		if apiErr.StatusCode >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.Error(err),
			)
		}
		WriteError(w, apiErr)
	}
}
