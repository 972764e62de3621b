package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"videotube_backend/internal/apperror"
	"videotube_backend/internal/model"
)

// =============================================================================
// FAKES
// =============================================================================

// memUserRepository is an in-memory UserRepository with the same uniqueness
// rules as the real stores. The *Err fields force a failure on that call.
type memUserRepository struct {
	mu    sync.Mutex
	users map[string]*model.User

	createErr error
	updateErr error

	createCalls int
}

func newMemUserRepository() *memUserRepository {
	return &memUserRepository{users: make(map[string]*model.User)}
}

func (m *memUserRepository) Create(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.createErr != nil {
		return m.createErr
	}
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return model.ErrUserExists
		}
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	m.users[user.ID] = clone(user)
	return nil
}

func (m *memUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return clone(u), nil
}

func (m *memUserRepository) GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			return clone(u), nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (m *memUserRepository) Update(ctx context.Context, id string, update model.UserUpdate) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	if update.Email != nil {
		for _, other := range m.users {
			if other.ID != id && other.Email == *update.Email {
				return nil, model.ErrUserExists
			}
		}
		u.Email = *update.Email
	}
	if update.FullName != nil {
		u.FullName = *update.FullName
	}
	if update.Avatar != nil {
		u.Avatar = *update.Avatar
	}
	if update.CoverImage != nil {
		u.CoverImage = *update.CoverImage
	}
	if update.PasswordHash != nil {
		u.Password = *update.PasswordHash
	}
	u.UpdatedAt = time.Now()
	return clone(u), nil
}

func (m *memUserRepository) SetRefreshToken(ctx context.Context, id string, token *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	if token == nil {
		u.RefreshToken = nil
	} else {
		t := *token
		u.RefreshToken = &t
	}
	return nil
}

func (m *memUserRepository) stored(id string) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.users[id])
}

func clone(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	c := *u
	if u.RefreshToken != nil {
		t := *u.RefreshToken
		c.RefreshToken = &t
	}
	return &c
}

// fakeMedia hands out deterministic URLs and records deletions.
type fakeMedia struct {
	uploads  []string
	deleted  []string
	failFor  map[string]bool // folder -> fail
	sequence int
}

func (f *fakeMedia) Upload(ctx context.Context, localPath string, kind model.ImageKind) (*model.UploadResult, error) {
	if f.failFor[kind.Folder] {
		return nil, errors.New("upload failed")
	}
	f.sequence++
	key := kind.Folder + "/" + strings.Repeat("x", f.sequence) + ".jpg"
	f.uploads = append(f.uploads, localPath)
	return &model.UploadResult{URL: "https://cdn.example.com/" + key, Key: key}, nil
}

func (f *fakeMedia) DeleteByURL(ctx context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

func newTestUserService(t *testing.T) (*UserService, *memUserRepository, *fakeMedia) {
	t.Helper()
	repo := newMemUserRepository()
	media := &fakeMedia{failFor: map[string]bool{}}
	return NewUserService(repo, newTestCredentials(t), media, zap.NewNop()), repo, media
}

func validRegistration() *model.RegisterRequest {
	return &model.RegisterRequest{
		FullName:   "Alice Liddell",
		Email:      "Alice@Example.com",
		Username:   "  Alice ",
		Password:   "wonderland-1",
		AvatarPath: "/tmp/avatar.png",
	}
}

func registerAlice(t *testing.T, svc *UserService) *model.User {
	t.Helper()
	user, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	return user
}

func requireAPIError(t *testing.T, err error, status int, message string) {
	t.Helper()
	var apiErr *apperror.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, status, apiErr.StatusCode)
	assert.Equal(t, message, apiErr.Message)
}

// =============================================================================
// REGISTER
// =============================================================================

func TestUserService_Register_Success(t *testing.T) {
	svc, repo, media := newTestUserService(t)
	req := validRegistration()
	req.CoverImagePath = "/tmp/cover.png"

	user, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "Alice Liddell", user.FullName)
	assert.True(t, strings.HasPrefix(user.Avatar, "https://cdn.example.com/avatars/"))
	assert.True(t, strings.HasPrefix(user.CoverImage, "https://cdn.example.com/covers/"))
	assert.Nil(t, user.RefreshToken)

	stored := repo.stored(user.ID)
	assert.NotEqual(t, req.Password, stored.Password)
	assert.NoError(t, svc.creds.VerifyPassword(stored.Password, req.Password))
	assert.Equal(t, []string{"/tmp/avatar.png", "/tmp/cover.png"}, media.uploads)
}

func TestUserService_Register_WithoutCoverImage(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	user := registerAlice(t, svc)
	assert.Equal(t, "", user.CoverImage)
}

func TestUserService_Register_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *model.RegisterRequest)
	}{
		{"full name", func(r *model.RegisterRequest) { r.FullName = "" }},
		{"email", func(r *model.RegisterRequest) { r.Email = "   " }},
		{"username", func(r *model.RegisterRequest) { r.Username = "" }},
		{"password", func(r *model.RegisterRequest) { r.Password = " " }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, media := newTestUserService(t)
			req := validRegistration()
			tt.mutate(req)

			_, err := svc.Register(context.Background(), req)

			requireAPIError(t, err, http.StatusBadRequest, "All fields are required")
			assert.Zero(t, repo.createCalls)
			assert.Empty(t, media.uploads)
		})
	}
}

func TestUserService_Register_Duplicate(t *testing.T) {
	tests := []struct {
		name     string
		username string
		email    string
	}{
		{"same username", "ALICE", "other@example.com"},
		{"same email", "bob", "alice@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, media := newTestUserService(t)
			registerAlice(t, svc)

			req := validRegistration()
			req.Username, req.Email = tt.username, tt.email
			_, err := svc.Register(context.Background(), req)

			requireAPIError(t, err, http.StatusConflict, "User with email or username already exists")
			assert.ErrorIs(t, err, model.ErrUserExists)
			assert.Equal(t, 1, repo.createCalls)
			assert.Len(t, media.uploads, 1, "no upload for the rejected registration")
		})
	}
}

func TestUserService_Register_AvatarRequired(t *testing.T) {
	svc, repo, _ := newTestUserService(t)
	req := validRegistration()
	req.AvatarPath = ""

	_, err := svc.Register(context.Background(), req)

	requireAPIError(t, err, http.StatusBadRequest, "Avatar file is required")
	assert.Zero(t, repo.createCalls)
}

func TestUserService_Register_AvatarUploadFails(t *testing.T) {
	svc, repo, media := newTestUserService(t)
	media.failFor[model.AvatarImage.Folder] = true

	_, err := svc.Register(context.Background(), validRegistration())

	requireAPIError(t, err, http.StatusBadRequest, "Avatar file is required")
	assert.Zero(t, repo.createCalls)
}

func TestUserService_Register_CoverUploadFails(t *testing.T) {
	svc, repo, media := newTestUserService(t)
	media.failFor[model.CoverImage.Folder] = true
	req := validRegistration()
	req.CoverImagePath = "/tmp/cover.png"

	_, err := svc.Register(context.Background(), req)

	requireAPIError(t, err, http.StatusBadRequest, "Error while uploading cover image")
	assert.Zero(t, repo.createCalls)
	require.Len(t, media.deleted, 1, "uploaded avatar is discarded")
	assert.Contains(t, media.deleted[0], "/avatars/")
}

func TestUserService_Register_CreateFails(t *testing.T) {
	dbErr := errors.New("insert failed")
	svc, repo, media := newTestUserService(t)
	repo.createErr = dbErr
	req := validRegistration()
	req.CoverImagePath = "/tmp/cover.png"

	_, err := svc.Register(context.Background(), req)

	requireAPIError(t, err, http.StatusInternalServerError, "Something went wrong while registering the user")
	assert.ErrorIs(t, err, dbErr)
	assert.Len(t, media.deleted, 2, "both uploads are discarded")
}

func TestUserService_Register_CreateRace(t *testing.T) {
	svc, repo, media := newTestUserService(t)
	repo.createErr = model.ErrUserExists

	_, err := svc.Register(context.Background(), validRegistration())

	requireAPIError(t, err, http.StatusConflict, "User with email or username already exists")
	assert.Len(t, media.deleted, 1)
}

// =============================================================================
// LOGIN / LOGOUT / REFRESH
// =============================================================================

func TestUserService_Login(t *testing.T) {
	tests := []struct {
		name string
		req  model.LoginRequest
	}{
		{"by username", model.LoginRequest{Username: "alice", Password: "wonderland-1"}},
		{"by email", model.LoginRequest{Email: "ALICE@example.com", Password: "wonderland-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestUserService(t)
			alice := registerAlice(t, svc)

			res, err := svc.Login(context.Background(), &tt.req)
			require.NoError(t, err)

			assert.Equal(t, alice.ID, res.User.ID)
			assert.NotEmpty(t, res.AccessToken)
			assert.NotEmpty(t, res.RefreshToken)

			id, err := svc.creds.ParseAccessToken(res.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, alice.ID, id)

			stored := repo.stored(alice.ID)
			require.NotNil(t, stored.RefreshToken)
			assert.Equal(t, res.RefreshToken, *stored.RefreshToken)
		})
	}
}

func TestUserService_Login_Failures(t *testing.T) {
	tests := []struct {
		name       string
		req        model.LoginRequest
		wantStatus int
		wantMsg    string
	}{
		{"no identifier", model.LoginRequest{Password: "wonderland-1"}, http.StatusBadRequest, "username or email is required"},
		{"unknown user", model.LoginRequest{Username: "bob", Password: "x"}, http.StatusNotFound, "User does not exist"},
		{"wrong password", model.LoginRequest{Username: "alice", Password: "nope"}, http.StatusUnauthorized, "Invalid user credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestUserService(t)
			registerAlice(t, svc)

			_, err := svc.Login(context.Background(), &tt.req)
			requireAPIError(t, err, tt.wantStatus, tt.wantMsg)
		})
	}
}

func TestUserService_Login_WrongPasswordKeepsSession(t *testing.T) {
	svc, repo, _ := newTestUserService(t)
	alice := registerAlice(t, svc)
	ctx := context.Background()

	login, err := svc.Login(ctx, &model.LoginRequest{Username: "alice", Password: "wonderland-1"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &model.LoginRequest{Email: "alice@example.com", Password: "nope"})
	requireAPIError(t, err, http.StatusUnauthorized, "Invalid user credentials")

	stored := repo.stored(alice.ID)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, login.RefreshToken, *stored.RefreshToken)

	_, err = svc.RefreshTokens(ctx, login.RefreshToken)
	assert.NoError(t, err, "the existing session still refreshes")
}

func TestUserService_Login_ReplacesPreviousSession(t *testing.T) {
	svc, _, _ := newTestUserService(t)
	registerAlice(t, svc)
	ctx := context.Background()
	req := &model.LoginRequest{Username: "alice", Password: "wonderland-1"}

	first, err := svc.Login(ctx, req)
	require.NoError(t, err)
	second, err := svc.Login(ctx, req)
	require.NoError(t, err)

	_, err = svc.RefreshTokens(ctx, first.RefreshToken)
	requireAPIError(t, err, http.StatusUnauthorized, "Refresh token is expired or used")

	_, err = svc.RefreshTokens(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

func TestUserService_RefreshTokens_Rotates(t *testing.T) {
	svc, repo, _ := newTestUserService(t)
	alice := registerAlice(t, svc)
	ctx := context.Background()

	login, err := svc.Login(ctx, &model.LoginRequest{Username: "alice", Password: "wonderland-1"})
	require.NoError(t, err)

	pair, err := svc.RefreshTokens(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, pair.RefreshToken)

	stored := repo.stored(alice.ID)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, pair.RefreshToken, *stored.RefreshToken)

	_, err = svc.RefreshTokens(ctx, login.RefreshToken)
	requireAPIError(t, err, http.StatusUnauthorized, "Refresh token is expired or used")
	assert.ErrorIs(t, err, model.ErrRefreshTokenReused)
}

func TestUserService_RefreshTokens_Rejects(t *testing.T) {
	svc, _, _ := newTestUserService(t)
	ctx := context.Background()

	_, err := svc.RefreshTokens(ctx, "")
	requireAPIError(t, err, http.StatusUnauthorized, "Unauthorized request")

	_, err = svc.RefreshTokens(ctx, "garbage")
	requireAPIError(t, err, http.StatusUnauthorized, "Invalid refresh token")

	orphan, err := svc.creds.GenerateRefreshToken("deleted-user")
	require.NoError(t, err)
	_, err = svc.RefreshTokens(ctx, orphan)
	requireAPIError(t, err, http.StatusUnauthorized, "Invalid refresh token")
}

func TestUserService_Logout(t *testing.T) {
	svc, repo, _ := newTestUserService(t)
	alice := registerAlice(t, svc)
	ctx := context.Background()

	login, err := svc.Login(ctx, &model.LoginRequest{Username: "alice", Password: "wonderland-1"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, alice.ID))
	assert.Nil(t, repo.stored(alice.ID).RefreshToken)

	_, err = svc.RefreshTokens(ctx, login.RefreshToken)
	requireAPIError(t, err, http.StatusUnauthorized, "Refresh token is expired or used")

	// logging out twice is harmless
	assert.NoError(t, svc.Logout(ctx, alice.ID))
}

// =============================================================================
// PASSWORD / ACCOUNT
// =============================================================================

func TestUserService_ChangePassword_EndToEnd(t *testing.T) {
	svc, _, _ := newTestUserService(t)
	alice := registerAlice(t, svc)
	ctx := context.Background()

	_, err := svc.Login(ctx, &model.LoginRequest{Username: "alice", Password: "wonderland-1"})
	require.NoError(t, err)

	require.NoError(t, svc.ChangePassword(ctx, alice.ID, &model.ChangePasswordRequest{
		OldPassword: "wonderland-1",
		NewPassword: "looking-glass-2",
	}))

	_, err = svc.Login(ctx, &model.LoginRequest{Username: "alice", Password: "wonderland-1"})
	requireAPIError(t, err, http.StatusUnauthorized, "Invalid user credentials")

	_, err = svc.Login(ctx, &model.LoginRequest{Username: "alice", Password: "looking-glass-2"})
	assert.NoError(t, err)
}

func TestUserService_ChangePassword_Failures(t *testing.T) {
	tests := []struct {
		name    string
		req     model.ChangePasswordRequest
		wantMsg string
	}{
		{"empty new password", model.ChangePasswordRequest{OldPassword: "wonderland-1"}, "New password is required"},
		{"wrong old password", model.ChangePasswordRequest{OldPassword: "nope", NewPassword: "n3w"}, "Invalid old password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestUserService(t)
			alice := registerAlice(t, svc)
			before := repo.stored(alice.ID).Password

			err := svc.ChangePassword(context.Background(), alice.ID, &tt.req)

			requireAPIError(t, err, http.StatusBadRequest, tt.wantMsg)
			assert.Equal(t, before, repo.stored(alice.ID).Password)
		})
	}
}

func TestUserService_UpdateAccount(t *testing.T) {
	svc, _, _ := newTestUserService(t)
	alice := registerAlice(t, svc)

	updated, err := svc.UpdateAccount(context.Background(), alice.ID, &model.UpdateAccountRequest{
		FullName: " Alice L. ",
		Email:    "ALICE@wonderland.org",
	})
	require.NoError(t, err)

	assert.Equal(t, "Alice L.", updated.FullName)
	assert.Equal(t, "alice@wonderland.org", updated.Email)
	assert.Equal(t, alice.Username, updated.Username)
}

func TestUserService_UpdateAccount_KeepsOwnEmail(t *testing.T) {
	svc, _, _ := newTestUserService(t)
	alice := registerAlice(t, svc)

	updated, err := svc.UpdateAccount(context.Background(), alice.ID, &model.UpdateAccountRequest{
		FullName: "Alice",
		Email:    alice.Email,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.FullName)
}

func TestUserService_UpdateAccount_Failures(t *testing.T) {
	svc, _, _ := newTestUserService(t)
	alice := registerAlice(t, svc)
	ctx := context.Background()

	bobReq := validRegistration()
	bobReq.Username, bobReq.Email = "bob", "bob@example.com"
	_, err := svc.Register(ctx, bobReq)
	require.NoError(t, err)

	_, err = svc.UpdateAccount(ctx, alice.ID, &model.UpdateAccountRequest{FullName: "Alice"})
	requireAPIError(t, err, http.StatusBadRequest, "All fields are required")

	_, err = svc.UpdateAccount(ctx, alice.ID, &model.UpdateAccountRequest{FullName: "Alice", Email: "BOB@example.com"})
	requireAPIError(t, err, http.StatusConflict, "Email is already in use")

	_, err = svc.UpdateAccount(ctx, "missing", &model.UpdateAccountRequest{FullName: "X", Email: "x@example.com"})
	requireAPIError(t, err, http.StatusNotFound, "User does not exist")
}

// =============================================================================
// IMAGES
// =============================================================================

func TestUserService_UpdateAvatar(t *testing.T) {
	svc, repo, media := newTestUserService(t)
	alice := registerAlice(t, svc)

	updated, err := svc.UpdateAvatar(context.Background(), alice, "/tmp/new-avatar.png")
	require.NoError(t, err)

	assert.NotEqual(t, alice.Avatar, updated.Avatar)
	assert.Equal(t, updated.Avatar, repo.stored(alice.ID).Avatar)
	assert.Equal(t, []string{alice.Avatar}, media.deleted, "previous avatar is removed")
}

func TestUserService_UpdateAvatar_Failures(t *testing.T) {
	svc, repo, media := newTestUserService(t)
	alice := registerAlice(t, svc)
	ctx := context.Background()

	_, err := svc.UpdateAvatar(ctx, alice, "")
	requireAPIError(t, err, http.StatusBadRequest, "Avatar file is missing")

	media.failFor[model.AvatarImage.Folder] = true
	_, err = svc.UpdateAvatar(ctx, alice, "/tmp/new-avatar.png")
	requireAPIError(t, err, http.StatusBadRequest, "Error while uploading avatar")

	assert.Equal(t, alice.Avatar, repo.stored(alice.ID).Avatar)
	assert.Empty(t, media.deleted)
}

func TestUserService_UpdateAvatar_StoreFailureDiscardsUpload(t *testing.T) {
	svc, repo, media := newTestUserService(t)
	alice := registerAlice(t, svc)
	repo.updateErr = errors.New("write failed")

	_, err := svc.UpdateAvatar(context.Background(), alice, "/tmp/new-avatar.png")
	require.Error(t, err)

	require.Len(t, media.deleted, 1)
	assert.NotEqual(t, alice.Avatar, media.deleted[0], "the new upload is discarded, the old one kept")
}

func TestUserService_UpdateCoverImage(t *testing.T) {
	svc, repo, media := newTestUserService(t)
	alice := registerAlice(t, svc)
	ctx := context.Background()

	first, err := svc.UpdateCoverImage(ctx, alice, "/tmp/cover-1.png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.CoverImage, "https://cdn.example.com/covers/"))
	assert.Empty(t, media.deleted, "nothing to remove when there was no cover")

	second, err := svc.UpdateCoverImage(ctx, first, "/tmp/cover-2.png")
	require.NoError(t, err)
	assert.Equal(t, second.CoverImage, repo.stored(alice.ID).CoverImage)
	assert.Equal(t, []string{first.CoverImage}, media.deleted)
}

func TestUserService_UpdateCoverImage_Failures(t *testing.T) {
	svc, _, media := newTestUserService(t)
	alice := registerAlice(t, svc)
	ctx := context.Background()

	_, err := svc.UpdateCoverImage(ctx, alice, "")
	requireAPIError(t, err, http.StatusBadRequest, "Cover image file is missing")

	media.failFor[model.CoverImage.Folder] = true
	_, err = svc.UpdateCoverImage(ctx, alice, "/tmp/cover.png")
	requireAPIError(t, err, http.StatusBadRequest, "Error while uploading cover image")
}

// =============================================================================
// CACHE / CLEANUP
// =============================================================================

type memUserCache struct {
	users       map[string]*model.User
	gets        int
	hits        int
	invalidated []string
}

func (c *memUserCache) Get(ctx context.Context, id string) (*model.User, bool, error) {
	c.gets++
	u, ok := c.users[id]
	if ok {
		c.hits++
	}
	return clone(u), ok, nil
}

func (c *memUserCache) Set(ctx context.Context, user *model.User) error {
	c.users[user.ID] = clone(user)
	return nil
}

func (c *memUserCache) Invalidate(ctx context.Context, id string) error {
	delete(c.users, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

type recordingCleaner struct {
	urls    []string
	reasons []string
}

func (c *recordingCleaner) Discard(ctx context.Context, url, reason string) error {
	c.urls = append(c.urls, url)
	c.reasons = append(c.reasons, reason)
	return nil
}

func TestUserService_GetByID_ReadThroughCache(t *testing.T) {
	svc, _, _ := newTestUserService(t)
	userCache := &memUserCache{users: map[string]*model.User{}}
	svc.SetUserCache(userCache)
	alice := registerAlice(t, svc)
	ctx := context.Background()

	first, err := svc.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	second, err := svc.GetByID(ctx, alice.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, userCache.gets)
	assert.Equal(t, 1, userCache.hits, "second lookup is served from the cache")
	assert.Equal(t, first.Email, second.Email)

	_, err = svc.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestUserService_WritesInvalidateCache(t *testing.T) {
	svc, _, _ := newTestUserService(t)
	userCache := &memUserCache{users: map[string]*model.User{}}
	svc.SetUserCache(userCache)
	alice := registerAlice(t, svc)
	ctx := context.Background()

	_, err := svc.GetByID(ctx, alice.ID)
	require.NoError(t, err)

	_, err = svc.UpdateAccount(ctx, alice.ID, &model.UpdateAccountRequest{FullName: "Alice L.", Email: alice.Email})
	require.NoError(t, err)

	cached, err := svc.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice L.", cached.FullName)

	_, err = svc.UpdateAvatar(ctx, cached, "/tmp/new-avatar.png")
	require.NoError(t, err)

	assert.Equal(t, []string{alice.ID, alice.ID}, userCache.invalidated)
}

func TestUserService_SetMediaCleaner(t *testing.T) {
	svc, _, media := newTestUserService(t)
	cleaner := &recordingCleaner{}
	svc.SetMediaCleaner(cleaner)
	alice := registerAlice(t, svc)

	_, err := svc.UpdateAvatar(context.Background(), alice, "/tmp/new-avatar.png")
	require.NoError(t, err)

	assert.Equal(t, []string{alice.Avatar}, cleaner.urls)
	assert.Equal(t, []string{discardReplaced}, cleaner.reasons)
	assert.Empty(t, media.deleted, "deletion is left to the cleaner")
}

func TestUserService_SettersIgnoreNil(t *testing.T) {
	svc, _, media := newTestUserService(t)
	svc.SetUserCache(nil)
	svc.SetMediaCleaner(nil)
	alice := registerAlice(t, svc)

	_, err := svc.UpdateAvatar(context.Background(), alice, "/tmp/new-avatar.png")
	require.NoError(t, err)
	assert.Equal(t, []string{alice.Avatar}, media.deleted)
}
