package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"videotube_backend/internal/apperror"
	"videotube_backend/internal/model"
	"videotube_backend/internal/transport/http/middleware"
)

const maxJSONBody = 1 << 20 // 1MB is plenty for JSON

// decodeJSON reads a JSON body into v. An empty body leaves v at its zero
// value so the service reports the missing fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperror.BadRequest("Invalid request body").Wrap(err)
	}
	return nil
}

// currentUser returns the user attached by the auth middleware.
func currentUser(r *http.Request) (*model.User, error) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		return nil, apperror.Unauthorized("Unauthorized request")
	}
	return user, nil
}
