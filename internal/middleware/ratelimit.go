package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"serverless-api-starter/internal/apierr"
)

// RateLimit rejects requests beyond the configured rate with a
// RateLimitError. The limiter is shared across requests within one execution
// context; API Gateway throttling applies across contexts.
func RateLimit(requestsPerSecond float64, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			_ = c.Error(apierr.NewRateLimit("Too many requests"))
			c.Abort()
			return
		}
		c.Next()
	}
}
