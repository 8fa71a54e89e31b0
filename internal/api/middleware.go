package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/fathima-sithara/chat-backend/internal/auth"
)

const (
	localsAccountID = "account_id"
	localsSessionID = "session_id"
	localsDeviceID  = "device_id"
)

// JWTAuth parses the bearer token and stashes the account/session claims.
// The device id rides on a header so the session layer can tell devices of
// the same account apart.
func JWTAuth(tokens *auth.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := c.Get("Authorization")
		const pref = "Bearer "
		if !strings.HasPrefix(h, pref) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization"})
		}
		claims, err := tokens.ParseToken(h[len(pref):])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}
		c.Locals(localsAccountID, claims.AccountID)
		c.Locals(localsSessionID, claims.SessionID)
		c.Locals(localsDeviceID, c.Get("X-Device-ID", "default"))
		return c.Next()
	}
}

func accountID(c *fiber.Ctx) string { v, _ := c.Locals(localsAccountID).(string); return v }
func deviceID(c *fiber.Ctx) string  { v, _ := c.Locals(localsDeviceID).(string); return v }

// RateStore is the counter backend of the limiter; *redis.Client
// satisfies it.
type RateStore interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RateLimiter is a fixed-window counter keyed per caller, used on the
// auth endpoints.
type RateLimiter struct {
	Redis  RateStore
	Prefix string
	Limit  int
	Window time.Duration
}

func NewRateLimiter(r RateStore, prefix string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{Redis: r, Prefix: prefix, Limit: limit, Window: window}
}

func (r *RateLimiter) MiddlewareByKey(keyFunc func(c *fiber.Ctx) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if r.Redis == nil {
			return c.Next()
		}
		redisKey := fmt.Sprintf("%s:%s", r.Prefix, keyFunc(c))
		// request-scoped so a canceled request doesn't leave the
		// INCR/EXPIRE pair dangling
		ctx := c.UserContext()
		count, err := r.Redis.Incr(ctx, redisKey).Result()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "rate limiter error"})
		}
		if count == 1 {
			r.Redis.Expire(ctx, redisKey, r.Window)
		}
		if count > int64(r.Limit) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded"})
		}
		return c.Next()
	}
}
