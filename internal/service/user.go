package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"videotube_backend/internal/apperror"
	"videotube_backend/internal/cache"
	"videotube_backend/internal/model"
	"videotube_backend/internal/repository"
)

var newID = uuid.NewString

// Reasons attached to discarded media, visible in cleanup logs.
const (
	discardReplaced     = "replaced"
	discardRolledBack   = "registration_rolled_back"
	discardUpdateFailed = "update_failed"
)

// MediaCleaner takes stored objects that no user references any more.
type MediaCleaner interface {
	Discard(ctx context.Context, url, reason string) error
}

// inlineCleaner deletes immediately, within the request.
type inlineCleaner struct {
	media MediaUploader
}

func (c inlineCleaner) Discard(ctx context.Context, url, _ string) error {
	return c.media.DeleteByURL(ctx, url)
}

// UserService handles business logic for user operations
type UserService struct {
	repo    repository.UserRepository
	creds   *CredentialService
	media   MediaUploader
	cache   cache.UserCache
	cleaner MediaCleaner
	logger  *zap.Logger
}

func NewUserService(repo repository.UserRepository, creds *CredentialService, media MediaUploader, logger *zap.Logger) *UserService {
	return &UserService{
		repo:    repo,
		creds:   creds,
		media:   media,
		cache:   cache.NopUserCache{},
		cleaner: inlineCleaner{media: media},
		logger:  logger,
	}
}

// SetUserCache enables read-through caching of profiles for GetByID.
func (s *UserService) SetUserCache(c cache.UserCache) {
	if c != nil {
		s.cache = c
	}
}

// SetMediaCleaner replaces in-request deletion of obsolete media, e.g. with a queue.
func (s *UserService) SetMediaCleaner(c MediaCleaner) {
	if c != nil {
		s.cleaner = c
	}
}

// Register creates an account. The avatar is mandatory; any failure after an
// upload removes what was uploaded so no half-registered state remains.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	fullName := strings.TrimSpace(req.FullName)
	email := normalize(req.Email)
	username := normalize(req.Username)
	if fullName == "" || email == "" || username == "" || strings.TrimSpace(req.Password) == "" {
		return nil, apperror.BadRequest("All fields are required")
	}

	existing, err := s.repo.GetByUsernameOrEmail(ctx, username, email)
	if err != nil && !errors.Is(err, model.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, apperror.Conflict("User with email or username already exists").Wrap(model.ErrUserExists)
	}

	if req.AvatarPath == "" {
		return nil, apperror.BadRequest("Avatar file is required")
	}

	hashed, err := s.creds.HashPassword(req.Password)
	if err != nil {
		return nil, apperror.BadRequest("Password must be 72 bytes or fewer").Wrap(err)
	}

	avatar, err := s.upload(ctx, req.AvatarPath, model.AvatarImage)
	if err != nil {
		return nil, apperror.BadRequest("Avatar file is required").Wrap(err)
	}

	var coverURL string
	if req.CoverImagePath != "" {
		cover, err := s.upload(ctx, req.CoverImagePath, model.CoverImage)
		if err != nil {
			s.discard(ctx, discardRolledBack, avatar.URL)
			return nil, apperror.BadRequest("Error while uploading cover image").Wrap(err)
		}
		coverURL = cover.URL
	}

	user := &model.User{
		ID:         newID(),
		Username:   username,
		Email:      email,
		FullName:   fullName,
		Avatar:     avatar.URL,
		CoverImage: coverURL,
		Password:   hashed,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		s.discard(ctx, discardRolledBack, avatar.URL, coverURL)
		if errors.Is(err, model.ErrUserExists) {
			return nil, apperror.Conflict("User with email or username already exists").Wrap(err)
		}
		return nil, apperror.Internal("Something went wrong while registering the user").Wrap(err)
	}

	created, err := s.repo.GetByID(ctx, user.ID)
	if err != nil {
		return nil, apperror.Internal("Something went wrong while registering the user").Wrap(err)
	}

	s.logger.Info("user registered", zap.String("user_id", created.ID), zap.String("username", created.Username))
	return created, nil
}

// Login authenticates by username or email and opens a new session,
// replacing whatever refresh token the user held before.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	username := normalize(req.Username)
	email := normalize(req.Email)
	if username == "" && email == "" {
		return nil, apperror.BadRequest("username or email is required")
	}

	user, err := s.repo.GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, apperror.NotFound("User does not exist").Wrap(err)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.creds.VerifyPassword(user.Password, req.Password); err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			return nil, apperror.Unauthorized("Invalid user credentials").Wrap(err)
		}
		return nil, err
	}

	pair, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	loggedIn, err := s.repo.GetByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}

	return &model.LoginResponse{
		User:         loggedIn,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Logout clears the stored refresh token.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	if err := s.repo.SetRefreshToken(ctx, userID, nil); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return apperror.NotFound("User does not exist").Wrap(err)
		}
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return nil
}

// RefreshTokens exchanges the current refresh token for a new pair. Only the
// most recently issued token is accepted.
func (s *UserService) RefreshTokens(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	if refreshToken == "" {
		return nil, apperror.Unauthorized("Unauthorized request").Wrap(model.ErrRefreshTokenMissing)
	}

	userID, err := s.creds.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid refresh token").Wrap(err)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, apperror.Unauthorized("Invalid refresh token").Wrap(model.ErrRefreshTokenInvalid)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user.RefreshToken == nil || subtle.ConstantTimeCompare([]byte(*user.RefreshToken), []byte(refreshToken)) != 1 {
		s.logger.Warn("stale refresh token presented", zap.String("user_id", user.ID))
		return nil, apperror.Unauthorized("Refresh token is expired or used").Wrap(model.ErrRefreshTokenReused)
	}

	return s.issueSession(ctx, user)
}

// ChangePassword replaces the password hash after checking the old password.
func (s *UserService) ChangePassword(ctx context.Context, userID string, req *model.ChangePasswordRequest) error {
	if strings.TrimSpace(req.NewPassword) == "" {
		return apperror.BadRequest("New password is required")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return apperror.NotFound("User does not exist").Wrap(err)
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.creds.VerifyPassword(user.Password, req.OldPassword); err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			return apperror.BadRequest("Invalid old password").Wrap(err)
		}
		return err
	}

	hashed, err := s.creds.HashPassword(req.NewPassword)
	if err != nil {
		return apperror.BadRequest("Password must be 72 bytes or fewer").Wrap(err)
	}

	if _, err := s.repo.Update(ctx, userID, model.UserUpdate{PasswordHash: &hashed}); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// GetByID loads the public profile of a user, serving it from the cache when
// possible. The result never carries credentials when it comes from the cache.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, found, err := s.cache.Get(ctx, id)
	if err != nil {
		s.logger.Warn("user cache read failed", zap.String("user_id", id), zap.Error(err))
	}
	if found {
		return user, nil
	}

	user, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, user); err != nil {
		s.logger.Warn("user cache write failed", zap.String("user_id", id), zap.Error(err))
	}
	return user, nil
}

// UpdateAccount changes full name and email; both are required.
func (s *UserService) UpdateAccount(ctx context.Context, userID string, req *model.UpdateAccountRequest) (*model.User, error) {
	fullName := strings.TrimSpace(req.FullName)
	email := normalize(req.Email)
	if fullName == "" || email == "" {
		return nil, apperror.BadRequest("All fields are required")
	}

	owner, err := s.repo.GetByUsernameOrEmail(ctx, "", email)
	if err != nil && !errors.Is(err, model.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if owner != nil && owner.ID != userID {
		return nil, apperror.Conflict("Email is already in use").Wrap(model.ErrUserExists)
	}

	updated, err := s.repo.Update(ctx, userID, model.UserUpdate{FullName: &fullName, Email: &email})
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUserExists):
			return nil, apperror.Conflict("Email is already in use").Wrap(err)
		case errors.Is(err, model.ErrUserNotFound):
			return nil, apperror.NotFound("User does not exist").Wrap(err)
		}
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	s.invalidate(ctx, userID)
	return updated, nil
}

// UpdateAvatar uploads a new avatar and drops the previous object.
func (s *UserService) UpdateAvatar(ctx context.Context, user *model.User, localPath string) (*model.User, error) {
	if localPath == "" {
		return nil, apperror.BadRequest("Avatar file is missing")
	}
	return s.replaceImage(ctx, user, localPath, model.AvatarImage, user.Avatar,
		"Error while uploading avatar",
		func(url string) model.UserUpdate { return model.UserUpdate{Avatar: &url} })
}

// UpdateCoverImage uploads a new cover image and drops the previous object.
func (s *UserService) UpdateCoverImage(ctx context.Context, user *model.User, localPath string) (*model.User, error) {
	if localPath == "" {
		return nil, apperror.BadRequest("Cover image file is missing")
	}
	return s.replaceImage(ctx, user, localPath, model.CoverImage, user.CoverImage,
		"Error while uploading cover image",
		func(url string) model.UserUpdate { return model.UserUpdate{CoverImage: &url} })
}

func (s *UserService) replaceImage(
	ctx context.Context,
	user *model.User,
	localPath string,
	kind model.ImageKind,
	previousURL string,
	uploadFailedMsg string,
	toUpdate func(url string) model.UserUpdate,
) (*model.User, error) {
	uploaded, err := s.upload(ctx, localPath, kind)
	if err != nil {
		return nil, apperror.BadRequest(uploadFailedMsg).Wrap(err)
	}

	updated, err := s.repo.Update(ctx, user.ID, toUpdate(uploaded.URL))
	if err != nil {
		s.discard(ctx, discardUpdateFailed, uploaded.URL)
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, apperror.NotFound("User does not exist").Wrap(err)
		}
		return nil, fmt.Errorf("failed to update %s: %w", kind.Folder, err)
	}

	s.invalidate(ctx, user.ID)
	if previousURL != "" && previousURL != uploaded.URL {
		s.discard(ctx, discardReplaced, previousURL)
	}
	return updated, nil
}

// issueSession signs a new token pair and stores the refresh token.
func (s *UserService) issueSession(ctx context.Context, user *model.User) (*model.TokenPair, error) {
	pair, err := s.creds.GenerateTokenPair(user)
	if err != nil {
		return nil, apperror.Internal("Something went wrong while generating tokens").Wrap(err)
	}
	if err := s.repo.SetRefreshToken(ctx, user.ID, &pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	return pair, nil
}

// upload treats a result without URL as a failed upload.
func (s *UserService) upload(ctx context.Context, localPath string, kind model.ImageKind) (*model.UploadResult, error) {
	res, err := s.media.Upload(ctx, localPath, kind)
	if err != nil {
		s.logger.Warn("media upload failed", zap.String("folder", kind.Folder), zap.Error(err))
		return nil, err
	}
	if res == nil || res.URL == "" {
		return nil, errors.New("upload returned no url")
	}
	return res, nil
}

// discard hands obsolete objects to the cleaner; failures are only logged.
func (s *UserService) discard(ctx context.Context, reason string, urls ...string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := s.cleaner.Discard(ctx, url, reason); err != nil {
			s.logger.Warn("failed to discard media object", zap.String("url", url), zap.String("reason", reason), zap.Error(err))
		}
	}
}

func (s *UserService) invalidate(ctx context.Context, id string) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn("user cache invalidation failed", zap.String("user_id", id), zap.Error(err))
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
