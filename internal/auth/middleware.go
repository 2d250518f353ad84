package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/buzzboard/backend/internal/util"
)

// Middleware validates the bearer token and places user_id and user into
// the request context. Handlers read them back through util.GetUserFromContext.
func Middleware(service AuthServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			util.RespondUnauthorized(c, "no token provided")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		user, err := service.ValidateToken(tokenString)
		if err != nil {
			util.RespondUnauthorized(c, "invalid token")
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Next()
	}
}

// OptionalMiddleware resolves the user when a valid token is present but
// lets anonymous requests through. Used by read endpoints whose results
// vary with the viewer (privacy filtering).
func OptionalMiddleware(service AuthServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header != "" {
			tokenString := strings.TrimPrefix(header, "Bearer ")
			if user, err := service.ValidateToken(tokenString); err == nil {
				c.Set("user_id", user.ID)
				c.Set("user", user)
			}
		}
		c.Next()
	}
}

// AdminMiddleware rejects requests from non-admin users. Must run after
// Middleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := util.GetUserFromContext(c)
		if !ok {
			c.Abort()
			return
		}
		if !user.IsAdmin {
			util.RespondForbidden(c, "admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}
