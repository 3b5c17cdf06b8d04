package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/minukang/auth-backend/pkg/logging"
)

type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

// NewLoginRateLimit counts attempts per client IP in a fixed Redis window.
// With no Redis client the middleware is a pass-through, so a missing cache
// never blocks logins.
func NewLoginRateLimit(cfg RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if rdb == nil || cfg.Limit <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			key := fmt.Sprintf("ratelimit:login:%s", c.RealIP())

			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				// fail open: the limiter is protection, not a dependency
				logging.FromContext(ctx).Warn("ratelimit_unavailable", "error", err)
				return next(c)
			}
			if count == 1 {
				rdb.Expire(ctx, key, cfg.Window)
			}
			if count > int64(cfg.Limit) {
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts")
			}
			return next(c)
		}
	}
}
