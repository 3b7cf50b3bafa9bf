package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"supportmatch/internal/utils"
	"supportmatch/pkg/cache"
	"supportmatch/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const ContextRequestID = "request_id"

// CORSMiddleware configures CORS headers for the given origins; "*" allows any.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := lo.Contains(allowedOrigins, "*")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && lo.Contains(allowedOrigins, origin):
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequestIDMiddleware adds a request ID to each request
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader("X-Request-ID"))
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		c.Set(ContextRequestID, requestID)
		c.Header("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID))
		c.Next()
	}
}

// LoggingMiddleware provides structured logging
func LoggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		log.WithRequestID(c.GetString(ContextRequestID)).
			LogAPIRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start), c.GetString(ContextUserID))
	}
}

// RecoveryMiddleware turns panics into a 500 and logs them.
func RecoveryMiddleware(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.WithContext(c.Request.Context()).
			WithField("panic", fmt.Sprint(recovered)).
			WithField("path", c.Request.URL.Path).
			Error("Recovered from panic")
		utils.InternalServerErrorResponse(c)
		c.Abort()
	})
}

// RateLimiter is implemented by cache.RedisCache and cache.LocalRateLimiter.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (*cache.RateLimitResult, error)
}

// RateLimitMiddleware limits requests per user, or per client IP when anonymous.
// Limiter errors let the request through.
func RateLimitMiddleware(limiter RateLimiter, perMinute int, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if perMinute <= 0 {
			c.Next()
			return
		}

		key := "ip:" + c.ClientIP()
		if userID := c.GetString(ContextUserID); userID != "" {
			key = "user:" + userID
		}

		result, err := limiter.CheckRateLimit(c.Request.Context(), key, int64(perMinute), time.Minute)
		if err != nil {
			log.WithError(err).Warn("Rate limiter unavailable")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(perMinute))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		if !result.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())+1))
			utils.ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}
