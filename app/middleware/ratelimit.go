package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	httpdto "github.com/vibast-solutions/ms-go-academy/app/dto/http"
)

// NewRateLimiter builds an in-memory per-key limiter from a formatted rate
// such as "10-M".
func NewRateLimiter(formatted string) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}
	return limiter.New(memory.NewStore(), rate), nil
}

// RateLimit limits requests per client IP.
func RateLimit(l *limiter.Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			result, err := l.Get(c.Request().Context(), ip)
			if err != nil {
				logrus.WithError(err).WithField("ip", ip).Error("Failed to get rate limit context")
				return c.JSON(http.StatusInternalServerError, httpdto.Fail("Internal server error"))
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(result.Reset, 10))

			if result.Reached {
				logrus.WithFields(logrus.Fields{
					"ip":    ip,
					"limit": result.Limit,
				}).Warn("Rate limit exceeded")
				return c.JSON(http.StatusTooManyRequests, httpdto.Fail("Too many requests. Please try again later."))
			}

			return next(c)
		}
	}
}
