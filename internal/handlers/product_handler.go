package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"reda-store/internal/catalog"
	"reda-store/internal/logging"
	"reda-store/internal/middleware"
	"reda-store/internal/storefront"
)

type ProductHandler struct {
	catalog    *catalog.Service
	storefront *storefront.Service
}

func NewProductHandler(c *catalog.Service, s *storefront.Service) *ProductHandler {
	return &ProductHandler{catalog: c, storefront: s}
}

func listQuery(c *gin.Context, defLimit int) catalog.Query {
	q := catalog.Query{
		Search:            c.Query("search"),
		Category:          c.Query("category"),
		Page:              queryInt(c, "page", 1),
		Limit:             queryInt(c, "limit", defLimit),
		IncludeOutOfStock: c.Query("includeOutOfStock") == "true",
	}
	if v, err := strconv.ParseBool(c.Query("outOfStock")); err == nil {
		q.OutOfStock = &v
	}
	return q
}

// --- Public storefront ---

// ListProducts GET /api/products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	span := startSpan(c, "ListProducts")
	defer span.End()

	page, err := h.catalog.ListPublic(c.Request.Context(), listQuery(c, 25))
	if err != nil {
		respondError(c, span, err)
		return
	}
	span.SetAttributes(attribute.Int64("product.total", page.Total))
	c.JSON(http.StatusOK, page)
}

// GetProduct GET /api/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	span := startSpan(c, "GetProduct")
	defer span.End()

	p, err := h.catalog.GetPublic(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p})
}

// WhatsAppLink GET /api/products/:id/whatsapp
func (h *ProductHandler) WhatsAppLink(c *gin.Context) {
	span := startSpan(c, "WhatsAppLink")
	defer span.End()

	ctx := c.Request.Context()
	p, err := h.catalog.GetPublic(ctx, c.Param("id"))
	if err != nil {
		respondError(c, span, err)
		return
	}
	link, err := h.storefront.OrderLink(ctx, p.ID, p.Name, p.SellingPrice)
	if err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

// StockedCategories GET /api/products/categories. Never fails: the
// storefront menu just renders empty.
func (h *ProductHandler) StockedCategories(c *gin.Context) {
	span := startSpan(c, "StockedCategories")
	defer span.End()

	cats, err := h.catalog.StockedCategories(c.Request.Context())
	if err != nil {
		logging.WithContext(c.Request.Context()).WithError(err).Warn("stocked categories unavailable")
		cats = []string{}
	}
	c.JSON(http.StatusOK, cats)
}

// ListCategories GET /api/categories
func (h *ProductHandler) ListCategories(c *gin.Context) {
	span := startSpan(c, "ListCategories")
	defer span.End()

	cats, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		logging.WithContext(c.Request.Context()).WithError(err).Warn("categories unavailable")
		cats = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}

type categoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// AddCategory POST /api/categories
func (h *ProductHandler) AddCategory(c *gin.Context) {
	span := startSpan(c, "AddCategory")
	defer span.End()

	var req categoryRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, span, err)
		return
	}
	if err := h.catalog.AddCategory(c.Request.Context(), req.Name); err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Added"})
}

// RemoveCategory DELETE /api/categories
func (h *ProductHandler) RemoveCategory(c *gin.Context) {
	span := startSpan(c, "RemoveCategory")
	defer span.End()

	var req categoryRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, span, err)
		return
	}
	if err := h.catalog.RemoveCategory(c.Request.Context(), req.Name); err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Removed"})
}

// --- Admin ---

// AdminListProducts GET /api/admin/products
func (h *ProductHandler) AdminListProducts(c *gin.Context) {
	span := startSpan(c, "AdminListProducts")
	defer span.End()

	page, err := h.catalog.ListAdmin(c.Request.Context(), listQuery(c, 50))
	if err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// AdminGetProduct GET /api/admin/products/:id
func (h *ProductHandler) AdminGetProduct(c *gin.Context) {
	span := startSpan(c, "AdminGetProduct")
	defer span.End()

	p, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p})
}

// ScanProduct looks a product up by barcode for the till.
// GET /api/products/scan/:barcode
func (h *ProductHandler) ScanProduct(c *gin.Context) {
	span := startSpan(c, "ScanProduct")
	defer span.End()

	p, err := h.catalog.GetBySKU(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p})
}

// AddProduct POST /api/products
func (h *ProductHandler) AddProduct(c *gin.Context) {
	span := startSpan(c, "AddProduct")
	defer span.End()

	var req catalog.ProductInput
	if err := bindJSON(c, &req); err != nil {
		respondError(c, span, err)
		return
	}
	p, err := h.catalog.Create(c.Request.Context(), middleware.AdminID(c), req)
	if err != nil {
		respondError(c, span, err)
		return
	}
	span.SetAttributes(attribute.String("product.id", p.ID))
	c.JSON(http.StatusCreated, gin.H{"message": "Product created", "id": p.ID})
}

// UpdateProduct PUT /api/products/:id (partial)
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	span := startSpan(c, "UpdateProduct")
	defer span.End()

	var req catalog.ProductPatch
	if err := bindJSON(c, &req); err != nil {
		respondError(c, span, err)
		return
	}
	p, err := h.catalog.Update(c.Request.Context(), middleware.AdminID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product updated", "product": p})
}

// PatchProduct PATCH /api/admin/products/:id (stock and prices only)
func (h *ProductHandler) PatchProduct(c *gin.Context) {
	span := startSpan(c, "PatchProduct")
	defer span.End()

	var req catalog.QuickPatch
	if err := bindJSON(c, &req); err != nil {
		respondError(c, span, err)
		return
	}
	p, err := h.catalog.Patch(c.Request.Context(), middleware.AdminID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Updated", "product": p})
}

// UpdateStock PATCH /api/products/:id/stock
func (h *ProductHandler) UpdateStock(c *gin.Context) {
	span := startSpan(c, "UpdateStock")
	defer span.End()

	var req catalog.StockUpdate
	if err := bindJSON(c, &req); err != nil {
		respondError(c, span, err)
		return
	}
	p, err := h.catalog.SetStock(c.Request.Context(), middleware.AdminID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Stock updated", "product": p})
}

// DeleteProduct DELETE /api/products/:id. Past sales keep their snapshot.
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	span := startSpan(c, "DeleteProduct")
	defer span.End()

	if err := h.catalog.Delete(c.Request.Context(), middleware.AdminID(c), c.Param("id")); err != nil {
		respondError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}
