package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-todo/config"
)

// NewRateLimiter throttles a route per client IP with a fixed window
// counter in redis. With no redis client it becomes a no-op, and when
// redis is unreachable requests pass through rather than failing the
// whole endpoint.
func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			key := "ratelimit:" + c.Path() + ":" + c.RealIP()

			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				logrus.WithError(err).Warn("Rate limiter unavailable, allowing request")
				return next(c)
			}
			if count == 1 {
				rdb.Expire(ctx, key, cfg.Window)
			}

			if count > int64(cfg.Limit) {
				retryAfter := cfg.Window
				if ttl, err := rdb.TTL(ctx, key).Result(); err == nil && ttl > 0 {
					retryAfter = ttl
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(retryAfter/time.Second)+1))
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error": "too many requests",
				})
			}

			return next(c)
		}
	}
}
