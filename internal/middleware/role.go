package middleware

import (
	"net/http" // HTTP status codes

	"arcade_wallet/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
)

// RequireRole restricts a route group to the given roles. The role travels in
// the JWT, so no database read is needed per request.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get("role") // Get role from context
		if !exists {
			// JWTAuthMiddleware did not run or the token had no role
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		role, ok := value.(domain.Role)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		for _, allowed := range roles {
			if role == allowed {
				c.Next() // Role matches, proceed to the next handler
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient role"})
	}
}
