package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"timebill/internal/domain/entity"
)

const (
	userIDKey   = "user_id"
	userRoleKey = "user_role"

	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"
)

// identityMiddleware resolves the acting user from request headers. The
// service sits behind an authenticating proxy that sets them; requests
// without an identity are rejected.
func identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(headerUserID)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing user identity",
			})
			return
		}

		role := c.GetHeader(headerUserRole)
		if role == "" {
			role = entity.RoleUser
		}

		c.Set(userIDKey, userID)
		c.Set(userRoleKey, role)
		c.Next()
	}
}

// corsMiddleware allows browser clients on other origins
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, "+headerUserID+", "+headerUserRole)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// currentUserID returns the authenticated user id set by identityMiddleware
func currentUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
