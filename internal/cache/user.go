package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"videotube_backend/internal/model"
)

const (
	// UserCachePrefix is the key prefix for cached profiles
	UserCachePrefix = "user:profile:"

	// DefaultUserCacheTTL bounds how long a profile may be served from cache
	DefaultUserCacheTTL = 5 * time.Minute
)

// UserCache holds public user profiles keyed by id. Credentials (password
// hash, refresh token) are never written to the cache.
type UserCache interface {
	// Get returns found=false on a miss.
	Get(ctx context.Context, id string) (user *model.User, found bool, err error)
	Set(ctx context.Context, user *model.User) error
	Invalidate(ctx context.Context, id string) error
}

// cachedUser is the stored form of a profile.
type cachedUser struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// RedisUserCache implements UserCache with plain string keys and a TTL.
type RedisUserCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewUserCache creates a UserCache backed by Redis.
func NewUserCache(client *redis.Client, ttl time.Duration) UserCache {
	if ttl <= 0 {
		ttl = DefaultUserCacheTTL
	}
	return &RedisUserCache{client: client, ttl: ttl}
}

func userKey(id string) string {
	return UserCachePrefix + id
}

func (c *RedisUserCache) Get(ctx context.Context, id string) (*model.User, bool, error) {
	raw, err := c.client.Get(ctx, userKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached user: %w", err)
	}

	var cu cachedUser
	if err := json.Unmarshal(raw, &cu); err != nil {
		// unreadable entry, treat as a miss
		return nil, false, nil
	}

	return &model.User{
		ID:         cu.ID,
		Username:   cu.Username,
		Email:      cu.Email,
		FullName:   cu.FullName,
		Avatar:     cu.Avatar,
		CoverImage: cu.CoverImage,
		CreatedAt:  cu.CreatedAt,
		UpdatedAt:  cu.UpdatedAt,
	}, true, nil
}

func (c *RedisUserCache) Set(ctx context.Context, user *model.User) error {
	raw, err := json.Marshal(cachedUser{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		FullName:   user.FullName,
		Avatar:     user.Avatar,
		CoverImage: user.CoverImage,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal cached user: %w", err)
	}
	if err := c.client.Set(ctx, userKey(user.ID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached user: %w", err)
	}
	return nil
}

func (c *RedisUserCache) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, userKey(id)).Err(); err != nil {
		return fmt.Errorf("invalidate cached user: %w", err)
	}
	return nil
}

// NopUserCache never stores anything. It is used when Redis is not configured.
type NopUserCache struct{}

func (NopUserCache) Get(context.Context, string) (*model.User, bool, error) { return nil, false, nil }
func (NopUserCache) Set(context.Context, *model.User) error                 { return nil }
func (NopUserCache) Invalidate(context.Context, string) error               { return nil }
