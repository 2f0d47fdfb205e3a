package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"reda-store/internal/auth"
)

// Context keys set by AuthMiddleware
const (
	AdminIDKey = "adminID"
	EmailKey   = "email"
	RoleKey    = "role"
)

// CookieName carries the session token for the browser admin panel
const CookieName = "admin_token"

func tokenFrom(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if tok := strings.TrimPrefix(h, "Bearer "); tok != h {
			return strings.TrimSpace(tok)
		}
	}
	if tok, err := c.Cookie(CookieName); err == nil {
		return tok
	}
	return ""
}

// AuthMiddleware accepts a Bearer token or the session cookie
func AuthMiddleware(tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Authenticate(c, tokens) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// Authenticate stores the admin identity on the context when the request
// carries a valid token. Routes that are public with an admin view use it
// directly.
func Authenticate(c *gin.Context, tokens *auth.Tokens) bool {
	tok := tokenFrom(c)
	if tok == "" {
		return false
	}
	claims, err := tokens.Validate(tok)
	if err != nil {
		return false
	}
	c.Set(AdminIDKey, claims.AdminID)
	c.Set(EmailKey, claims.Email)
	c.Set(RoleKey, claims.Role)
	return true
}

// RequireRole lets the request through when the admin has one of the roles
func RequireRole(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(RoleKey)
		for _, r := range allowed {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource"})
	}
}

// AdminID is the authenticated admin, empty on public routes
func AdminID(c *gin.Context) string {
	return c.GetString(AdminIDKey)
}
