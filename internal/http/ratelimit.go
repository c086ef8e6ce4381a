package http

import (
	nethttp "net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"todolist/backend/internal/logger"
)

// RateLimitMiddleware throttles all requests through one token bucket
// holding a second's worth of burst.
func RateLimitMiddleware(qps int) echo.MiddlewareFunc {
	limiter := rate.NewLimiter(rate.Limit(qps), qps)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !limiter.Allow() {
				logger.Warn("rate limited",
					"module", "http",
					"action", "request",
					"resource", "http",
					"result", "throttled",
					"method", c.Request().Method,
					"path", c.Request().URL.Path,
					"remote_ip", c.RealIP(),
				)
				return c.JSON(nethttp.StatusTooManyRequests, map[string]string{
					"error": "too many requests",
				})
			}
			return next(c)
		}
	}
}
