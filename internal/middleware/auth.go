package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"saferide/internal/auth"
	"saferide/internal/domain"
)

const (
	contextUserIDKey = "auth_user_id"
	contextRoleKey   = "auth_user_role"
)

// Auth verifies the bearer token and stashes the actor's identity in the
// request context. Requests without a valid token are rejected.
func Auth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "missing bearer token", "code": "UNAUTHORIZED"})
			return
		}

		userID, role, err := tokens.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid token", "code": "UNAUTHORIZED"})
			return
		}

		c.Set(contextUserIDKey, userID)
		c.Set(contextRoleKey, role)
		c.Next()
	}
}

// RequireRole rejects requests whose actor does not hold the role.
// It must run after Auth.
func RequireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ActorRole(c) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "insufficient role", "code": "FORBIDDEN"})
			return
		}
		c.Next()
	}
}

// ActorID returns the authenticated user's ID, or "" outside Auth.
func ActorID(c *gin.Context) string {
	id, _ := c.Get(contextUserIDKey)
	s, _ := id.(string)
	return s
}

// ActorRole returns the authenticated user's role, or "" outside Auth.
func ActorRole(c *gin.Context) domain.Role {
	role, _ := c.Get(contextRoleKey)
	r, _ := role.(domain.Role)
	return r
}
