package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"timetrack/pkg/logger"
)

const (
	// UserIDHeader owner identity forwarded by the authentication gateway
	UserIDHeader = "X-User-ID"
	ownerIDKey   = "owner_id"
)

// AuthMiddleware checks the gateway API key and resolves the owner from X-User-ID.
// An empty apiKey disables the key check.
func AuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey != "" {
			token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
			if token != apiKey {
				logger.WarnCtx(c.Request.Context(), "unauthorized request, invalid API key")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
		}

		ownerID, err := strconv.ParseInt(strings.TrimSpace(c.GetHeader(UserIDHeader)), 10, 64)
		if err != nil || ownerID <= 0 {
			logger.WarnCtx(c.Request.Context(), "unauthorized request, missing or invalid %s", UserIDHeader)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(ownerIDKey, ownerID)
		c.Next()
	}
}

// OwnerID returns the owner resolved by AuthMiddleware, 0 when absent
func OwnerID(c *gin.Context) int64 {
	return c.GetInt64(ownerIDKey)
}
