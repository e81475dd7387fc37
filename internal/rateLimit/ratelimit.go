package rateLimit

import (
	"context"
	"strconv"
	"time"

	redisadapter "github.com/robertarktes/event-registration/internal/adapters/redis"
	"github.com/robertarktes/event-registration/internal/observability"
)

// RateLimiter counts requests per key in fixed windows.
type RateLimiter struct {
	redis  *redisadapter.Cache
	logger observability.Logger
}

func NewRateLimiter(redis *redisadapter.Cache, logger observability.Logger) *RateLimiter {
	return &RateLimiter{redis: redis, logger: logger}
}

// Allow reports whether another request under key fits in the window. The
// limiter fails open when redis is unreachable.
func (rl *RateLimiter) Allow(ctx context.Context, key string, rate int, period time.Duration) bool {
	window := time.Now().UnixNano() / int64(period)
	fullKey := "rl:" + key + ":" + strconv.FormatInt(window, 10)

	pipe := rl.redis.Client().Pipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.Expire(ctx, fullKey, period)

	if _, err := pipe.Exec(ctx); err != nil {
		rl.logger.WithError(err).Warn("rate limiter unavailable, allowing request")
		return true
	}

	if incr.Val() > int64(rate) {
		observability.RateLimitExceeded.Inc()
		return false
	}
	return true
}
