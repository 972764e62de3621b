package handler

import (
	"context"
	"net/http"

	"videotube_backend/internal/config"
	"videotube_backend/internal/httputil"
	"videotube_backend/internal/model"
	"videotube_backend/internal/service"
)

type UserHandler struct {
	userService *service.UserService
	tempDir     string
}

func NewUserHandler(userService *service.UserService, cfg *config.Config) *UserHandler {
	return &UserHandler{
		userService: userService,
		tempDir:     cfg.UploadTempDir,
	}
}

// POST /users/change-password
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	var req model.ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	if err := h.userService.ChangePassword(r.Context(), user.ID, &req); err != nil {
		return err
	}

	httputil.WriteSuccess(w, http.StatusOK, nil, "Password changed successfully")
	return nil
}

// GET /users/current-user
func (h *UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	httputil.WriteSuccess(w, http.StatusOK, user, "Current user fetched successfully")
	return nil
}

// PATCH /users/update-account
func (h *UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	var req model.UpdateAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	updated, err := h.userService.UpdateAccount(r.Context(), user.ID, &req)
	if err != nil {
		return err
	}

	httputil.WriteSuccess(w, http.StatusOK, updated, "Account details updated successfully")
	return nil
}

// PATCH /users/avatar
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) error {
	return h.replaceImage(w, r, "avatar", model.MaxAvatarSizeBytes,
		h.userService.UpdateAvatar, "Avatar image updated successfully")
}

// PATCH /users/cover-image
func (h *UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) error {
	return h.replaceImage(w, r, "coverImage", model.MaxCoverImageSizeBytes,
		h.userService.UpdateCoverImage, "Cover image updated successfully")
}

type imageUpdater func(ctx context.Context, user *model.User, localPath string) (*model.User, error)

func (h *UserHandler) replaceImage(w http.ResponseWriter, r *http.Request, field string, maxSize int64, update imageUpdater, message string) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}

	if err := parseMultipart(w, r, maxSize+formOverhead); err != nil {
		return err
	}
	defer r.MultipartForm.RemoveAll()

	localPath, err := stageFile(r, field, h.tempDir)
	if err != nil {
		return err
	}
	defer removeStaged(localPath)

	updated, err := update(r.Context(), user, localPath)
	if err != nil {
		return err
	}

	httputil.WriteSuccess(w, http.StatusOK, updated, message)
	return nil
}
