package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/timmy/dietsupport/internal/logger"
)

const userIDKey = "user_id"

// TokenValidator resolves a bearer token to a user id.
type TokenValidator interface {
	Validate(token string) (string, error)
}

// Auth returns a middleware that requires "Authorization: Bearer <token>" and stores the
// token's user id on the Gin and logger contexts.
func Auth(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		userID, err := tokens.Validate(token)
		if err != nil {
			GetLogger(c).WithError(err).Warn("Token validation failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		ctx := logger.SetUserID(c.Request.Context(), userID)
		c.Request = c.Request.WithContext(ctx)
		c.Set("logger", logger.FromContext(ctx))
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user id set by Auth.
func UserID(c *gin.Context) (string, bool) {
	userID := c.GetString(userIDKey)
	return userID, userID != ""
}
