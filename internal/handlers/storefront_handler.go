package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reda-store/internal/apperr"
	"reda-store/internal/auth"
	"reda-store/internal/middleware"
	"reda-store/internal/storefront"
)

// StorefrontHandler serves settings, reviews and stock requests. Some reads
// are public with an admin view behind a token.
type StorefrontHandler struct {
	storefront *storefront.Service
	tokens     *auth.Tokens
}

func NewStorefrontHandler(s *storefront.Service, tokens *auth.Tokens) *StorefrontHandler {
	return &StorefrontHandler{storefront: s, tokens: tokens}
}

type statusRequest struct {
	ID     string `json:"id" binding:"required"`
	Status string `json:"status" binding:"required"`
}

// GetSettings GET /api/settings
func (h *StorefrontHandler) GetSettings(c *gin.Context) {
	span := startSpan(c, "GetSettings")
	defer span.End()

	st, err := h.storefront.Settings(c.Request.Context())
	if err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": st})
}

// SaveSettings PUT /api/settings
func (h *StorefrontHandler) SaveSettings(c *gin.Context) {
	span := startSpan(c, "SaveSettings")
	defer span.End()

	var req storefront.SettingsInput
	if err := bindJSON(c, &req); err != nil {
		respondError(c, span, err)
		return
	}
	if _, err := h.storefront.SaveSettings(c.Request.Context(), req); err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Settings saved"})
}

// SubmitFeedback POST /api/feedback
func (h *StorefrontHandler) SubmitFeedback(c *gin.Context) {
	span := startSpan(c, "SubmitFeedback")
	defer span.End()

	var req storefront.FeedbackInput
	if err := bindJSON(c, &req); err != nil {
		respondError(c, span, err)
		return
	}
	if _, err := h.storefront.SubmitFeedback(c.Request.Context(), req); err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Thank you for your feedback!"})
}

// ListFeedback GET /api/feedback, ?admin=true for the moderation queue
func (h *StorefrontHandler) ListFeedback(c *gin.Context) {
	span := startSpan(c, "ListFeedback")
	defer span.End()

	admin := c.Query("admin") == "true"
	if admin && !middleware.Authenticate(c, h.tokens) {
		respondError(c, span, apperr.ErrUnauthorized)
		return
	}
	out, err := h.storefront.Feedback(c.Request.Context(), admin)
	if err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": out})
}

// ModerateFeedback PATCH /api/feedback
func (h *StorefrontHandler) ModerateFeedback(c *gin.Context) {
	span := startSpan(c, "ModerateFeedback")
	defer span.End()

	var req statusRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, span, err)
		return
	}
	if err := h.storefront.SetFeedbackStatus(c.Request.Context(), req.ID, req.Status); err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Updated"})
}

// SubmitStockRequest POST /api/stock-requests
func (h *StorefrontHandler) SubmitStockRequest(c *gin.Context) {
	span := startSpan(c, "SubmitStockRequest")
	defer span.End()

	var req storefront.StockRequestInput
	if err := bindJSON(c, &req); err != nil {
		respondError(c, span, err)
		return
	}
	if _, err := h.storefront.SubmitStockRequest(c.Request.Context(), req); err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Request submitted!"})
}

// ListStockRequests GET /api/stock-requests. ?public=true shows the newest
// pending requests to anyone, otherwise the admin inbox.
func (h *StorefrontHandler) ListStockRequests(c *gin.Context) {
	span := startSpan(c, "ListStockRequests")
	defer span.End()

	admin := c.Query("public") != "true"
	if admin && !middleware.Authenticate(c, h.tokens) {
		respondError(c, span, apperr.ErrUnauthorized)
		return
	}
	out, err := h.storefront.StockRequests(c.Request.Context(), admin)
	if err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": out})
}

// UpdateStockRequest PATCH /api/stock-requests
func (h *StorefrontHandler) UpdateStockRequest(c *gin.Context) {
	span := startSpan(c, "UpdateStockRequest")
	defer span.End()

	var req statusRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, span, err)
		return
	}
	if err := h.storefront.SetStockRequestStatus(c.Request.Context(), req.ID, req.Status); err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Updated"})
}
