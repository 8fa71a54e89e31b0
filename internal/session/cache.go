package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DeviceCache holds the session id each device believes it owns. On the
// phone this is the keychain; server-side it is a redis record keyed by
// account and device so the invalidation watcher can compare against it.
type DeviceCache interface {
	Put(ctx context.Context, accountID, deviceID, sessionID string) error
	Get(ctx context.Context, accountID, deviceID string) (string, error)
	Delete(ctx context.Context, accountID, deviceID string) error
}

type redisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client, prefix string) DeviceCache {
	return &redisCache{client: client, prefix: prefix}
}

func (c *redisCache) key(accountID, deviceID string) string {
	return fmt.Sprintf("%s:sess:%s:%s", c.prefix, accountID, deviceID)
}

func (c *redisCache) Put(ctx context.Context, accountID, deviceID, sessionID string) error {
	return c.client.Set(ctx, c.key(accountID, deviceID), sessionID, 0).Err()
}

func (c *redisCache) Get(ctx context.Context, accountID, deviceID string) (string, error) {
	v, err := c.client.Get(ctx, c.key(accountID, deviceID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

func (c *redisCache) Delete(ctx context.Context, accountID, deviceID string) error {
	return c.client.Del(ctx, c.key(accountID, deviceID)).Err()
}
