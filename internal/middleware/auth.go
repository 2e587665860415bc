package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"gigmarket/internal/service/auth"
	"gigmarket/pkg/utils"
)

const (
	// AuthorizationHeader authorization header name
	AuthorizationHeader = "Authorization"
	// BearerPrefix bearer token prefix
	BearerPrefix = "Bearer "
	// UserIDKey context key carrying the authenticated user id
	UserIDKey = "user_id"
	// UsernameKey context key carrying the authenticated username
	UsernameKey = "username"
)

// Auth authenticates every request with a bearer token
func Auth(authService auth.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeader)
		if authHeader == "" {
			utils.Error(c, utils.CodeUnauthorized, "missing authorization header")
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, BearerPrefix) {
			utils.Error(c, utils.CodeUnauthorized, "invalid authorization header format")
			c.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, BearerPrefix)
		claims, err := authService.ValidateToken(c.Request.Context(), token)
		if err != nil {
			utils.Error(c, utils.CodeUnauthorized, utils.UserMessage(err))
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UsernameKey, claims.Username)
		c.Next()
	}
}

// UserID returns the authenticated user's id from the context
func UserID(c *gin.Context) uint64 {
	if v, ok := c.Get(UserIDKey); ok {
		if id, ok := v.(uint64); ok {
			return id
		}
	}
	return 0
}
