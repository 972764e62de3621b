package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"videotube_backend/internal/apperror"
	"videotube_backend/internal/model"
)

const (
	multipartMemory = 8 << 20     // parts above this spill to disk
	formOverhead    = 1024 * 1024 // text fields and boundaries
)

// parseMultipart limits the body to maxBytes and parses the form.
func parseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return apperror.New(http.StatusRequestEntityTooLarge, "Uploaded file is too large").Wrap(model.ErrFileTooLarge)
		case errors.Is(err, http.ErrNotMultipart):
			return apperror.BadRequest("Content-Type must be multipart/form-data").Wrap(err)
		}
		return apperror.BadRequest("Invalid form data").Wrap(err)
	}
	return nil
}

// stageFile copies the form file under field into dir and returns its path.
// An absent file yields an empty path and no error.
func stageFile(r *http.Request, field, dir string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", apperror.BadRequest("Invalid " + field + " upload").Wrap(err)
	}
	defer file.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if len(ext) > 8 || strings.ContainsAny(ext, `/\`) {
		ext = ""
	}
	tmp, err := os.CreateTemp(dir, field+"-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to stage %s: %w", field, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to stage %s: %w", field, err)
	}
	return tmp.Name(), nil
}

// removeStaged deletes staged files the media service did not consume.
func removeStaged(paths ...string) {
	for _, p := range paths {
		if p != "" {
			os.Remove(p)
		}
	}
}
