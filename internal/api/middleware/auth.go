package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kodella-ai/kodella/internal/auth"
	"github.com/kodella-ai/kodella/internal/logger"
)

const userIDKey = "auth_user_id"

// Authenticate validates a bearer Authorization header and returns the user ID
// it was issued for. Reusable outside gin handlers.
func Authenticate(authHeader string, cfg auth.Config) (int64, error) {
	if authHeader == "" {
		return 0, errors.New("missing Authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return 0, errors.New("invalid Authorization header format")
	}

	return auth.ParseToken(cfg, parts[1])
}

// Auth returns a gin middleware that requires a valid bearer session token
// and stores the authenticated user ID in the request context
func Auth(cfg auth.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := Authenticate(c.GetHeader("Authorization"), cfg)
		if err != nil {
			logger.Warn("Authentication failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Authentication failed",
				},
			})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user ID stored by the Auth middleware
func UserID(c *gin.Context) (int64, bool) {
	value, exists := c.Get(userIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := value.(int64)
	return userID, ok
}
