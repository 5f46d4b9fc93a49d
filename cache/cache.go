package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"b0ase/config"

	"github.com/redis/go-redis/v9"
)

const (
	revokedKeyPrefix = "auth:revoked:"
	gigPagePrefix    = "gigs:page:"
	gigVersionKey    = "gigs:version"
	pingTimeout      = 5 * time.Second
)

// Cache wraps the redis client. A nil *Cache is valid and does nothing, which
// is how the service runs without redis.
type Cache struct {
	client *redis.Client
}

func New(cfg config.RedisConfig) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return &Cache{client: client}, nil
}

func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// RevokeToken records a logged out token id until the token would have
// expired on its own.
func (c *Cache) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if c == nil || jti == "" || ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, revokedKeyPrefix+jti, "1", ttl).Err()
}

func (c *Cache) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if c == nil || jti == "" {
		return false, nil
	}
	n, err := c.client.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetGigPage looks up a browse page under the current version. The returned
// key pins that version; pass it to SetGigPage so a page built from a query
// that raced an invalidation is stored where nobody will read it.
func (c *Cache) GetGigPage(ctx context.Context, query string) (string, []byte, bool, error) {
	if c == nil {
		return "", nil, false, nil
	}
	key, err := c.gigPageKey(ctx, query)
	if err != nil {
		return "", nil, false, err
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return key, nil, false, nil
	}
	if err != nil {
		return key, nil, false, err
	}
	return key, data, true, nil
}

// SetGigPage stores payload under a key returned by GetGigPage. An empty key
// is ignored.
func (c *Cache) SetGigPage(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if c == nil || key == "" {
		return nil
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}

// InvalidateGigs bumps the page version so every cached page becomes
// unreachable; the old keys age out through their TTL.
func (c *Cache) InvalidateGigs(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Incr(ctx, gigVersionKey).Err()
}

func (c *Cache) gigPageKey(ctx context.Context, query string) (string, error) {
	version, err := c.client.Get(ctx, gigVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return gigPagePrefix + strconv.FormatInt(version, 10) + ":" + query, nil
}
