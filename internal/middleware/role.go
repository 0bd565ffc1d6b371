package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"workshopdesk/internal/pkg/response"
)

// RequireRole ensures that the authenticated user has one of the given
// roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			c.Abort()
			return
		}

		for _, allowed := range roles {
			if role.(string) == allowed {
				c.Next()
				return
			}
		}

		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
		c.Abort()
	}
}

// StaffOnly admits both roles that can operate the admin surface.
func StaffOnly() gin.HandlerFunc {
	return RequireRole("admin", "staff")
}
