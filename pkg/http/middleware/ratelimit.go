package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Limiter hands out tokens per key.
type Limiter interface {
	Allow(key string, capacity, refillPerSec float64) bool
}

// RateLimit rejects requests with 429 once a client IP exhausts its bucket.
func RateLimit(lim Limiter, burst, perSecond float64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !lim.Allow(c.RealIP(), burst, perSecond) {
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"status":  http.StatusTooManyRequests,
					"message": http.StatusText(http.StatusTooManyRequests),
				})
			}
			return next(c)
		}
	}
}
