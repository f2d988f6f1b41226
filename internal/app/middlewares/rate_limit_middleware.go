package middlewares

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/safatanc/loyalty-core/internal/app/errors"
	"github.com/safatanc/loyalty-core/internal/app/pkg"
	"github.com/safatanc/loyalty-core/internal/infrastructures"
	"github.com/sirupsen/logrus"
)

// RateLimiter decides whether one more request under key fits the rate.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit Rate) (bool, RateLimitInfo)
	Reset(ctx context.Context, key string) error
}

type Rate struct {
	Requests int
	Window   time.Duration
}

type RateLimitInfo struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

type RateLimitMiddleware struct {
	limiter RateLimiter
}

func NewRateLimitMiddleware(limiter RateLimiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
	}
}

// RedisRateLimiter keeps a sliding window per key in a redis sorted set.
type RedisRateLimiter struct {
	redis     *redis.Client
	keyPrefix string
	now       func() time.Time
}

func NewRedisRateLimiter(client *redis.Client, config *infrastructures.AppConfig) *RedisRateLimiter {
	return &RedisRateLimiter{
		redis:     client,
		keyPrefix: config.RedisKeyPrefix,
		now:       time.Now,
	}
}

func (l *RedisRateLimiter) windowKey(key string) string {
	return fmt.Sprintf("%s:ratelimit:%s", l.keyPrefix, key)
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string, limit Rate) (bool, RateLimitInfo) {
	now := l.now()
	windowKey := l.windowKey(key)

	pipe := l.redis.TxPipeline()
	pipe.ZRemRangeByScore(ctx, windowKey, "0", fmt.Sprintf("%d", now.Add(-limit.Window).UnixNano()))
	count := pipe.ZCard(ctx, windowKey)
	pipe.ZAdd(ctx, windowKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString()),
	})
	pipe.Expire(ctx, windowKey, limit.Window)

	if _, err := pipe.Exec(ctx); err != nil {
		// fail open: the limiter must not take the ledger down with it
		logrus.WithFields(logrus.Fields{"key": key, "error": err}).Warn("rate limiter unavailable")
		return true, RateLimitInfo{
			Limit:     limit.Requests,
			Remaining: limit.Requests,
			Reset:     now.Add(limit.Window),
		}
	}

	remaining := limit.Requests - int(count.Val()) - 1
	info := RateLimitInfo{
		Limit:     limit.Requests,
		Remaining: max(remaining, 0),
		Reset:     now.Add(limit.Window),
	}
	return remaining >= 0, info
}

func (l *RedisRateLimiter) Reset(ctx context.Context, key string) error {
	return l.redis.Del(ctx, l.windowKey(key)).Err()
}

var (
	PublicLimit = Rate{
		Requests: 60,
		Window:   time.Minute,
	}

	// ClaimLimit bounds code claims per client, which is what makes guessing
	// codes impractical.
	ClaimLimit = Rate{
		Requests: 20,
		Window:   time.Minute,
	}

	BusinessLimit = Rate{
		Requests: 300,
		Window:   time.Minute,
	}
)

func (m *RateLimitMiddleware) LimitByIP(limit Rate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return m.handleRateLimit(c, "ip:"+getIPAddress(c), limit)
	}
}

// LimitByClient limits by the client identity, or by IP when there is none.
func (m *RateLimitMiddleware) LimitByClient(limit Rate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id := ClientID(c); id != uuid.Nil {
			return m.handleRateLimit(c, "client:"+id.String(), limit)
		}
		return m.LimitByIP(limit)(c)
	}
}

func (m *RateLimitMiddleware) LimitByBusiness(limit Rate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id := BusinessID(c); id != uuid.Nil {
			return m.handleRateLimit(c, "business:"+id.String(), limit)
		}
		return m.LimitByIP(limit)(c)
	}
}

func (m *RateLimitMiddleware) handleRateLimit(c *fiber.Ctx, key string, limit Rate) error {
	allowed, info := m.limiter.Allow(c.UserContext(), key, limit)

	c.Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
	c.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
	c.Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.Reset.Unix()))

	if !allowed {
		return pkg.ErrorResponse(c, errors.NewTooManyRequestsError("Rate limit exceeded"))
	}

	return c.Next()
}

func getIPAddress(c *fiber.Ctx) string {
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	if xrip := c.Get("X-Real-IP"); xrip != "" {
		return xrip
	}

	return c.IP()
}
