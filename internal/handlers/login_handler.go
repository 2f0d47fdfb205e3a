package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"reda-store/internal/auth"
	"reda-store/internal/middleware"
	"reda-store/internal/models"
)

type AuthHandler struct {
	auth         *auth.Service
	secureCookie bool
}

func NewAuthHandler(a *auth.Service, secureCookie bool) *AuthHandler {
	return &AuthHandler{auth: a, secureCookie: secureCookie}
}

func (h *AuthHandler) setSession(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.CookieName, token, maxAge, "/", "", h.secureCookie, true)
}

func adminView(a models.Admin) gin.H {
	return gin.H{"id": a.ID, "name": a.Name, "email": a.Email, "role": a.Role}
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	span := startSpan(c, "Login")
	defer span.End()

	var req auth.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, span, err)
		return
	}
	sess, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, span, err)
		return
	}

	span.SetAttributes(attribute.String("admin.role", sess.Admin.Role))
	h.setSession(c, sess.Token, int(h.auth.Tokens().TTL().Seconds()))
	c.JSON(http.StatusOK, gin.H{"ok": true, "admin": adminView(sess.Admin), "token": sess.Token})
}

// Register POST /api/auth/register. Only mounted when registration is enabled.
func (h *AuthHandler) Register(c *gin.Context) {
	span := startSpan(c, "Register")
	defer span.End()

	var req auth.RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, span, err)
		return
	}
	sess, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, span, err)
		return
	}

	h.setSession(c, sess.Token, int(h.auth.Tokens().TTL().Seconds()))
	c.JSON(http.StatusCreated, gin.H{"ok": true, "message": "Registered successfully", "token": sess.Token})
}

// Logout POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setSession(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Me GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	span := startSpan(c, "Me")
	defer span.End()

	admin, err := h.auth.Me(c.Request.Context(), middleware.AdminID(c))
	if err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"admin": adminView(*admin)})
}
