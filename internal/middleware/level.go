package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/cypherhub/backend/internal/models"
	"github.com/cypherhub/backend/pkg/response"
)

// RequireLevel returns a middleware that allows only callers at or above
// the given authorization level.
func RequireLevel(min models.AuthLevel) gin.HandlerFunc {
	return func(c *gin.Context) {
		levelVal, ok := c.Get(ContextAuthLevel)
		if !ok {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		level, _ := levelVal.(models.AuthLevel)
		if level < min {
			response.Forbidden(c, "insufficient authorization level")
			c.Abort()
			return
		}
		c.Next()
	}
}
