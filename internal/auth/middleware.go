package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

// Middleware rejects requests without a valid bearer token and stores the
// caller identity for handlers.
func Middleware(secretKey []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token is missing"})
			return
		}

		userID, err := GetUserIDFromToken(strings.TrimSpace(token), secretKey)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the identity set by Middleware.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// SetUserID is for handlers mounted behind another auth layer, and for tests.
func SetUserID(c *gin.Context, userID string) {
	c.Set(userIDKey, userID)
}
