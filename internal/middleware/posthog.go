package middleware

import (
	"net/http"
	"strings"

	"github.com/SscSPs/wallet_ledger_app/internal/utils"
	"github.com/gin-gonic/gin"
)

// pathsToSkip contains paths that should not be tracked by PostHog
var pathsToSkip = map[string]bool{
	"/health":        true,
	"/api/v1/health": true,
}

// distinctIDKey is set by handlers to the account the request acted on.
const distinctIDKey = contextKey("distinct_id")

// SetDistinctID records which account a request acted on, for analytics.
func SetDistinctID(c *gin.Context, accountID string) {
	c.Set(string(distinctIDKey), accountID)
}

// PosthogMiddleware creates a Gin middleware handler that tracks API events with PostHog
func PosthogMiddleware(posthogClient *utils.PosthogClientWrapper) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip if PostHog is not initialized or path is in skip list
		if posthogClient == nil || !posthogClient.IsInitialized() || pathsToSkip[c.Request.URL.Path] {
			c.Next()
			return
		}

		// Process request first
		c.Next()

		// Skip if there was an error processing the request
		if len(c.Errors) > 0 || c.Writer.Status() >= http.StatusBadRequest {
			return
		}

		// Accounts are anonymous; fall back to the client IP when no account was touched
		distinctID := c.GetString(string(distinctIDKey))
		if distinctID == "" {
			distinctID = c.ClientIP()
		}

		// Create event name from route path (e.g., "/api/v1/deposit" -> "api_v1_deposit")
		eventName := strings.TrimPrefix(c.FullPath(), "/")
		eventName = strings.ReplaceAll(eventName, "/", "_")
		eventName = strings.ReplaceAll(eventName, ":", "")

		// Skip if event name is empty (e.g., for 404s)
		if eventName == "" {
			return
		}

		props := map[string]any{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
		}
		if requestID, ok := GetRequestIDFromCtx(c.Request.Context()); ok {
			props["request_id"] = requestID
		}

		posthogClient.Enqueue(distinctID, eventName, props)
	}
}
