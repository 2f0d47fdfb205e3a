package handlers

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"reda-store/internal/ai"
	"reda-store/internal/auth"
	"reda-store/internal/blob"
	"reda-store/internal/catalog"
	"reda-store/internal/config"
	"reda-store/internal/logging"
	"reda-store/internal/metrics"
	"reda-store/internal/middleware"
	"reda-store/internal/models"
	"reda-store/internal/reports"
	"reda-store/internal/sales"
	"reda-store/internal/storefront"
)

// Deps is everything the HTTP layer talks to.
type Deps struct {
	Config     *config.Config
	DB         *gorm.DB
	Auth       *auth.Service
	Catalog    *catalog.Service
	Sales      *sales.Service
	Reports    *reports.Aggregator
	Storefront *storefront.Service
	Images     blob.Store
	Agent      *ai.Agent
}

func NewRouter(d Deps) *gin.Engine {
	useJSONFieldNames()
	cfg := d.Config

	r := gin.New()
	r.MaxMultipartMemory = 32 << 20
	r.Use(
		gin.Recovery(),
		otelgin.Middleware(cfg.Telemetry.ServiceName),
		gin.LoggerWithConfig(gin.LoggerConfig{
			Output:    logging.Writer(),
			SkipPaths: []string{"/health", "/metrics"},
		}),
		cors.New(cors.Config{
			AllowOrigins:     cfg.Server.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "X-Report-Period"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)

	tokens := d.Auth.Tokens()
	authH := NewAuthHandler(d.Auth, cfg.Auth.SecureCookie)
	products := NewProductHandler(d.Catalog, d.Storefront)
	salesH := NewSaleHandler(d.Sales)
	reportsH := NewReportHandler(d.Reports, d.Storefront)
	site := NewStorefrontHandler(d.Storefront, tokens)
	images := NewImageHandler(d.Images)
	aiH := NewAIHandler(d.Agent)
	system := NewSystemHandler(d.DB, cfg.Telemetry.ServiceName)

	r.GET("/health", system.HealthCheck)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")

	// --- AUTH ---
	authGroup := api.Group("/auth")
	authGroup.POST("/login", authH.Login)
	authGroup.POST("/logout", authH.Logout)
	authGroup.GET("/me", middleware.AuthMiddleware(tokens), authH.Me)
	// Feature flag: registration is closed unless explicitly allowed
	if cfg.Auth.AllowRegistration {
		authGroup.POST("/register", authH.Register)
		logging.WithContext(context.Background()).Warn("registration route is OPEN, disable it in production")
	}

	// --- PUBLIC STOREFRONT ---
	api.GET("/products", products.ListProducts)
	api.GET("/products/categories", products.StockedCategories)
	api.GET("/products/:id", products.GetProduct)
	api.GET("/products/:id/whatsapp", products.WhatsAppLink)
	api.GET("/categories", products.ListCategories)
	api.GET("/settings", site.GetSettings)
	api.GET("/feedback", site.ListFeedback)
	api.POST("/feedback", site.SubmitFeedback)
	api.GET("/stock-requests", site.ListStockRequests)
	api.POST("/stock-requests", site.SubmitStockRequest)
	api.GET("/images/:fileId", images.GetImage)

	// --- STAFF (any role) ---
	staff := api.Group("", middleware.AuthMiddleware(tokens))
	{
		staff.POST("/sales", salesH.CreateSale)
		staff.GET("/sales", salesH.ListSales)
		staff.GET("/sales/:id", salesH.GetSale)
		staff.POST("/sales/:id", salesH.ReturnSale)
		staff.POST("/sales/:id/return", salesH.ReturnSale)

		staff.GET("/products/scan/:barcode", products.ScanProduct)
		staff.POST("/products", products.AddProduct)
		staff.PUT("/products/:id", products.UpdateProduct)
		staff.PATCH("/products/:id/stock", products.UpdateStock)
		staff.GET("/admin/products", products.AdminListProducts)
		staff.GET("/admin/products/:id", products.AdminGetProduct)
		staff.PATCH("/admin/products/:id", products.PatchProduct)
		staff.POST("/categories", products.AddCategory)
		staff.DELETE("/categories", products.RemoveCategory)

		staff.PUT("/settings", site.SaveSettings)
		staff.PATCH("/feedback", site.ModerateFeedback)
		staff.PATCH("/stock-requests", site.UpdateStockRequest)
		staff.POST("/images/upload", images.UploadImages)
	}

	// --- OWNER & ADMIN ONLY ---
	managers := staff.Group("", middleware.RequireRole(models.RoleOwner, models.RoleAdmin))
	{
		managers.DELETE("/products/:id", products.DeleteProduct)
		managers.GET("/reports", reportsH.GetSalesReport)
		managers.GET("/reports/export", reportsH.ExportReport)
		managers.GET("/reports/valuation", reportsH.GetStockValuation)
		managers.GET("/admin/audit-logs", system.AuditLogs)
		managers.POST("/ask", aiH.AskAI)
	}

	serveSPA(r, cfg.Server.WebDir)
	return r
}

// serveSPA serves the built admin panel and falls back to index.html so the
// client router can handle deep links. Unknown /api paths stay JSON 404s.
func serveSPA(r *gin.Engine, dir string) {
	index := filepath.Join(dir, "index.html")
	spa := dir != ""
	if spa {
		if _, err := os.Stat(index); err != nil {
			spa = false
		}
	}
	if spa {
		r.Static("/assets", filepath.Join(dir, "assets"))
	}

	r.NoRoute(func(c *gin.Context) {
		if !spa || strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.File(index)
	})
}
