package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"reda-store/internal/reports"
	"reda-store/internal/storefront"
)

type ReportHandler struct {
	reports    *reports.Aggregator
	storefront *storefront.Service
}

func NewReportHandler(r *reports.Aggregator, s *storefront.Service) *ReportHandler {
	return &ReportHandler{reports: r, storefront: s}
}

// GetSalesReport GET /api/reports?type=daily|monthly|yearly&date=YYYY-MM-DD
func (h *ReportHandler) GetSalesReport(c *gin.Context) {
	span := startSpan(c, "GetSalesReport")
	defer span.End()

	report, err := h.reports.Build(c.Request.Context(), c.Query("type"), c.Query("date"))
	if err != nil {
		respondError(c, span, err)
		return
	}
	span.SetAttributes(
		attribute.String("report.period", report.Label()),
		attribute.Int("report.sales", report.Summary.TotalSales),
	)
	c.JSON(http.StatusOK, report)
}

// ExportReport renders the same report as a printable HTML page.
// GET /api/reports/export
func (h *ReportHandler) ExportReport(c *gin.Context) {
	span := startSpan(c, "ExportReport")
	defer span.End()

	ctx := c.Request.Context()
	report, err := h.reports.Build(ctx, c.Query("type"), c.Query("date"))
	if err != nil {
		respondError(c, span, err)
		return
	}

	siteName := ""
	if st, err := h.storefront.Settings(ctx); err == nil {
		siteName = st.SiteName
	}

	var buf bytes.Buffer
	if err := h.reports.RenderHTML(&buf, report, siteName); err != nil {
		respondError(c, span, err)
		return
	}
	c.Header("X-Report-Period", report.Label())
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// GetStockValuation prices the stock on hand at cost, per category.
// GET /api/reports/valuation
func (h *ReportHandler) GetStockValuation(c *gin.Context) {
	span := startSpan(c, "GetStockValuation")
	defer span.End()

	v, err := h.reports.StockValuation(c.Request.Context())
	if err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, v)
}
