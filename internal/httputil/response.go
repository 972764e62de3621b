package httputil

import (
	"encoding/json"
	"net/http"

	"videotube_backend/internal/apperror"
)

// Response is the envelope wrapped around every successful payload:
// {"statusCode": 200, "data": {...}, "message": "...", "success": true}
type Response struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

// ErrorResponse is the envelope for failures. Data is always null.
type ErrorResponse struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
	Errors     []string    `json:"errors"`
}

// NewResponse builds an envelope; success is derived from the status code.
func NewResponse(status int, data interface{}, message string) Response {
	if data == nil {
		data = struct{}{}
	}
	return Response{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	}
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// headers are already sent
			return
		}
	}
}

// WriteSuccess writes data wrapped in the standard envelope.
func WriteSuccess(w http.ResponseWriter, status int, data interface{}, message string) {
	WriteJSON(w, status, NewResponse(status, data, message))
}

// WriteError writes the error envelope for e.
func WriteError(w http.ResponseWriter, e *apperror.APIError) {
	errs := e.Errors
	if errs == nil {
		errs = []string{}
	}
	WriteJSON(w, e.StatusCode, ErrorResponse{
		StatusCode: e.StatusCode,
		Data:       nil,
		Message:    e.Message,
		Success:    false,
		Errors:     errs,
	})
}

// WriteUnauthorized writes a 401 Unauthorized error
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, apperror.Unauthorized(message))
}
