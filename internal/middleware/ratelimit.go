package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
)

// tooManyRequestsMessage is returned to rate limited callers.
const tooManyRequestsMessage = "Too many requests. Please try again later."

// RateLimit creates a Gin middleware for rate limiting requests per client IP.
// It uses the provided limiter instance.
func RateLimit(limiterInstance *limiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get the IP address for rate limiting
		ip := c.ClientIP()
		if !allow(c, limiterInstance, "ip:"+ip, slog.String("ip", ip)) {
			return
		}
		c.Next()
	}
}

// AllowAccount checks the per-account limit from inside a handler, once the acting
// account is known from the request body. It only peeks at the quota; handlers call
// RecordAccountAction after a successful operation, so rejected requests are free.
// It aborts the request with 429 and returns false when the quota is used up.
// A nil limiter always allows.
func AllowAccount(c *gin.Context, limiterInstance *limiter.Limiter, accountID string) bool {
	if limiterInstance == nil {
		return true
	}
	logger := GetLoggerFromContext(c)

	context, err := limiterInstance.Peek(c.Request.Context(), accountKey(accountID))
	if err != nil {
		logger.Error("Failed to peek account rate limit", slog.String("account_id", accountID), slog.String("error", err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error during rate limit check"})
		return false
	}
	if context.Remaining <= 0 {
		logger.Warn("Account rate limit exceeded", slog.String("account_id", accountID), slog.Int64("limit", context.Limit))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": tooManyRequestsMessage})
		return false
	}
	return true
}

// RecordAccountAction spends one unit of the account's quota. Concurrent requests
// that all passed AllowAccount may overshoot the limit by their number.
func RecordAccountAction(c *gin.Context, limiterInstance *limiter.Limiter, accountID string) {
	if limiterInstance == nil {
		return
	}
	if _, err := limiterInstance.Increment(c.Request.Context(), accountKey(accountID), 1); err != nil {
		GetLoggerFromContext(c).Error("Failed to record account action", slog.String("account_id", accountID), slog.String("error", err.Error()))
	}
}

func accountKey(accountID string) string {
	return "account:" + accountID
}

func allow(c *gin.Context, limiterInstance *limiter.Limiter, key string, attr slog.Attr) bool {
	logger := GetLoggerFromContext(c)

	context, err := limiterInstance.Get(c.Request.Context(), key)
	if err != nil {
		logger.Error("Failed to get rate limit context", attr, slog.String("error", err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error during rate limit check"})
		return false
	}

	if context.Reached {
		logger.Warn("Rate limit exceeded", attr, slog.Int64("limit", context.Limit), slog.Int64("remaining_requests", context.Remaining))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": tooManyRequestsMessage})
		return false
	}
	return true
}
