package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"reda-store/internal/middleware"
	"reda-store/internal/sales"
)

type SaleHandler struct {
	sales *sales.Service
}

func NewSaleHandler(s *sales.Service) *SaleHandler {
	return &SaleHandler{sales: s}
}

// CreateSale commits a POS sale. POST /api/sales
func (h *SaleHandler) CreateSale(c *gin.Context) {
	span := startSpan(c, "CreateSale")
	defer span.End()

	var req sales.CreateSaleInput
	if err := bindStrict(c, &req); err != nil {
		respondError(c, span, err)
		return
	}
	span.SetAttributes(attribute.Int("sale.lines", len(req.Items)))

	receipt, err := h.sales.Create(c.Request.Context(), middleware.AdminID(c), req)
	if err != nil {
		respondError(c, span, err)
		return
	}

	span.SetAttributes(attribute.String("sale.bill_no", receipt.BillNo))
	c.JSON(http.StatusCreated, gin.H{
		"message": "Sale completed",
		"saleId":  receipt.SaleID,
		"billNo":  receipt.BillNo,
		"total":   receipt.Total,
		"profit":  receipt.Profit,
	})
}

// ReturnSale reverses a whole sale. POST /api/sales/:id/return
func (h *SaleHandler) ReturnSale(c *gin.Context) {
	span := startSpan(c, "ReturnSale")
	defer span.End()

	span.SetAttributes(attribute.String("sale.id", c.Param("id")))
	receipt, err := h.sales.Return(c.Request.Context(), middleware.AdminID(c), c.Param("id"))
	if err != nil {
		respondError(c, span, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Return processed",
		"returnId": receipt.ReturnID,
		"billNo":   receipt.BillNo,
	})
}

// ListSales GET /api/sales?page=&limit=
func (h *SaleHandler) ListSales(c *gin.Context) {
	span := startSpan(c, "ListSales")
	defer span.End()

	page, err := h.sales.List(c.Request.Context(), queryInt(c, "page", 1), queryInt(c, "limit", 20))
	if err != nil {
		respondError(c, span, err)
		return
	}
	span.SetAttributes(attribute.Int("sale.count", len(page.Sales)))
	c.JSON(http.StatusOK, page)
}

// GetSale GET /api/sales/:id
func (h *SaleHandler) GetSale(c *gin.Context) {
	span := startSpan(c, "GetSale")
	defer span.End()

	sale, err := h.sales.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sale": sale})
}
