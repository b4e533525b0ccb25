package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	apiKeyHeader  = "x-api-key"
	apiKeyContext = "api_key"
)

// APIKeyAuth 只放行白名单中的 key
func APIKeyAuth(keys map[string]struct{}) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(apiKeyHeader)
		if _, ok := keys[key]; key == "" || !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(apiKeyContext, key)
		c.Next()
	}
}

// RateLimitMiddleware applies the per-key cooldown. It must run after APIKeyAuth.
func RateLimitMiddleware(limiter *CooldownLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString(apiKeyContext)

		ok, wait := limiter.Allow(key)
		if !ok {
			seconds := retrySeconds(wait)
			c.Header("Retry-After", strconv.FormatInt(seconds, 10))
			c.Header("X-RateLimit-Limit", limiter.LimitHeader())
			c.Header("X-RateLimit-Remaining", "0")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Try again in " + strconv.FormatInt(seconds, 10) + "s.",
			})
			return
		}
		c.Next()
	}
}

// RequestLogger 记录每个请求的耗时与状态码
func RequestLogger(logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
		)
	}
}
