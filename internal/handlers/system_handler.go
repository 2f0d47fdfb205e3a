package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"reda-store/internal/audit"
	"reda-store/internal/database"
	"reda-store/internal/utils"
)

type SystemHandler struct {
	db      *gorm.DB
	service string
}

func NewSystemHandler(db *gorm.DB, service string) *SystemHandler {
	return &SystemHandler{db: db, service: service}
}

// HealthCheck reports whether the database answers. GET /health
func (h *SystemHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := database.Ping(ctx, h.db); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "unreachable",
			"service":  h.service,
			"instance": utils.InstanceID(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "connected",
		"service":  h.service,
		"instance": utils.InstanceID(),
	})
}

// AuditLogs lists recent admin actions, newest first.
// GET /api/admin/audit-logs?action=&limit=
func (h *SystemHandler) AuditLogs(c *gin.Context) {
	span := startSpan(c, "AuditLogs")
	defer span.End()

	limit := queryInt(c, "limit", 100)
	if limit < 1 || limit > 500 {
		limit = 100
	}
	logs, err := audit.List(c.Request.Context(), h.db, c.Query("action"), limit)
	if err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
