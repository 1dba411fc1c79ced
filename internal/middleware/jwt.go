package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cypherhub/backend/internal/models"
	"github.com/cypherhub/backend/pkg/response"
)

const (
	// ContextUserID is the key for user ID in gin context.
	ContextUserID = "user_id"
	// ContextAuthLevel is the key for the caller's authorization level.
	ContextAuthLevel = "auth_level"
	// ContextUserEmail is the key for user email in gin context.
	ContextUserEmail = "user_email"
)

// TokenValidator checks a bearer token and returns the caller's identity.
type TokenValidator interface {
	ValidateBearer(token string) (userID uuid.UUID, email string, level models.AuthLevel, err error)
}

// JWT returns a middleware that validates JWT and sets user claims in context.
func JWT(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		userID, email, level, err := tokens.ValidateBearer(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextUserID, userID)
		c.Set(ContextAuthLevel, level)
		c.Set(ContextUserEmail, email)
		c.Next()
	}
}
