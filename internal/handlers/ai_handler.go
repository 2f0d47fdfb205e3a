package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reda-store/internal/ai"
	"reda-store/internal/middleware"
)

type AskRequest struct {
	Message string `json:"message" binding:"required"`
}

type AIHandler struct {
	agent *ai.Agent
}

func NewAIHandler(agent *ai.Agent) *AIHandler {
	return &AIHandler{agent: agent}
}

// AskAI POST /api/ask
func (h *AIHandler) AskAI(c *gin.Context) {
	span := startSpan(c, "AskAI")
	defer span.End()

	var req AskRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, span, err)
		return
	}

	reply, err := h.agent.Ask(c.Request.Context(), middleware.AdminID(c), req.Message)
	if err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
