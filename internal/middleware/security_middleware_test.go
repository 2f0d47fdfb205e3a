package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reda-store/internal/auth"
	"reda-store/internal/models"
)

func router(tokens *auth.Tokens) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(tokens), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"adminId": AdminID(c), "role": c.GetString(RoleKey)})
	})
	r.DELETE("/thing", AuthMiddleware(tokens), RequireRole(models.RoleOwner, models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokens("k", time.Hour)
	r := router(tokens)
	tok, err := tokens.Generate("a-1", "a@reda.lk", models.RoleCashier)
	require.NoError(t, err)

	tests := []struct {
		name   string
		setup  func(*http.Request)
		status int
	}{
		{"no token", func(*http.Request) {}, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }, http.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: tok}) }, http.StatusOK},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"wrong scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic "+tok) }, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Contains(t, w.Body.String(), `"adminId":"a-1"`)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tokens := auth.NewTokens("k", time.Hour)
	r := router(tokens)

	for role, want := range map[string]int{
		models.RoleCashier: http.StatusForbidden,
		models.RoleAdmin:   http.StatusNoContent,
		models.RoleOwner:   http.StatusNoContent,
	} {
		tok, err := tokens.Generate("a-1", "a@reda.lk", role)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodDelete, "/thing", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, role)
	}
}
