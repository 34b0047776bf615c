package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openalpha/api/internal/auth"
)

const identityKey = "identity"

// RequireAuth rejects requests without a valid bearer token and attaches the
// verified identity to the context. It runs before any read; no operation
// sees an unauthenticated request.
func RequireAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated", "code": "unauthenticated"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated", "code": "unauthenticated"})
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(parts[1], jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token", "code": "unauthenticated"})
			c.Abort()
			return
		}

		c.Set(identityKey, claims)
		c.Next()
	}
}

// RequireRole gates a route group on the caller's role. The rejection does
// not say anything about the resource the caller was after.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Identity(c)
		if claims == nil || claims.Role != role {
			c.JSON(http.StatusForbidden, gin.H{"error": "not authorized", "code": "forbidden"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// Identity returns the verified claims set by RequireAuth, or nil.
func Identity(c *gin.Context) *auth.Claims {
	value, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	claims, ok := value.(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}
