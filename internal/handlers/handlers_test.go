package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"reda-store/internal/ai"
	"reda-store/internal/auth"
	"reda-store/internal/blob"
	"reda-store/internal/catalog"
	"reda-store/internal/config"
	"reda-store/internal/database"
	"reda-store/internal/middleware"
	"reda-store/internal/models"
	"reda-store/internal/reports"
	"reda-store/internal/sales"
	"reda-store/internal/storefront"
)

type testEnv struct {
	r      *gin.Engine
	db     *gorm.DB
	tokens *auth.Tokens
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenInMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg := &config.Config{
		Server:    config.ServerConfig{CORSOrigins: []string{"http://localhost:5173"}},
		Auth:      config.AuthConfig{AllowRegistration: true},
		Telemetry: config.TelemetryConfig{ServiceName: "reda-store-test"},
	}
	tokens := auth.NewTokens("test-secret", time.Hour)
	cat := catalog.NewService(db)
	agg := reports.NewAggregator(db, time.UTC)

	r := NewRouter(Deps{
		Config:     cfg,
		DB:         db,
		Auth:       auth.NewService(db, tokens, "letmein"),
		Catalog:    cat,
		Sales:      sales.NewService(db, "REDA", time.UTC),
		Reports:    agg,
		Storefront: storefront.NewService(db, "+94700000000", "http://shop.test"),
		Images:     blob.NewGormStore(db),
		Agent:      ai.NewAgent("", "", ai.NewTools(cat, agg), time.UTC),
	})
	return &testEnv{r: r, db: db, tokens: tokens}
}

func (e *testEnv) token(t *testing.T, role string) string {
	t.Helper()
	tok, err := e.tokens.Generate(uuid.NewString(), strings.ToLower(role)+"@reda.lk", role)
	require.NoError(t, err)
	return tok
}

// do sends body as JSON unless it is already a string.
func (e *testEnv) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func (e *testEnv) product(t *testing.T, stock int) models.Product {
	t.Helper()
	p := models.Product{
		Name: "Kettle", Brand: "Philips", Category: "Home", SKU: "K-" + uuid.NewString()[:8],
		GettingPrice: 500, SellingPrice: 800, StockQty: stock,
	}
	require.NoError(t, e.db.Create(&p).Error)
	return p
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func saleBody(productID string, qty int) gin.H {
	return gin.H{
		"items": []gin.H{{
			"productId": productID, "productName": "Kettle", "qty": qty,
			"unitPrice": 800, "gettingPrice": 500, "subtotal": 800 * qty,
		}},
		"paymentMethod": "cash",
	}
}

func TestCreateSale(t *testing.T) {
	e := setup(t)
	p := e.product(t, 3)
	cashier := e.token(t, models.RoleCashier)

	w := e.do(http.MethodPost, "/api/sales", saleBody(p.ID, 2), cashier)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	out := decode(t, w)
	assert.Equal(t, "Sale completed", out["message"])
	assert.Regexp(t, `^REDA-\d{8}-00001$`, out["billNo"])
	assert.InDelta(t, 1600, out["total"], 0.001)
	assert.InDelta(t, 600, out["profit"], 0.001)

	var after models.Product
	require.NoError(t, e.db.First(&after, "id = ?", p.ID).Error)
	assert.Equal(t, 1, after.StockQty)

	w = e.do(http.MethodGet, "/api/sales/"+out["saleId"].(string), nil, cashier)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), out["billNo"].(string))
}

func TestCreateSaleRejects(t *testing.T) {
	e := setup(t)
	p := e.product(t, 1)
	cashier := e.token(t, models.RoleCashier)

	tests := []struct {
		name    string
		body    interface{}
		token   string
		status  int
		message string
	}{
		{
			name:    "unknown field",
			body:    `{"items":[{"productId":"` + p.ID + `","qty":1,"unitPrice":800,"subtotal":800}],"paymentMethod":"cash","coupon":"X"}`,
			token:   cashier,
			status:  http.StatusBadRequest,
			message: `Unknown field "coupon"`,
		},
		{
			name:    "missing payment method",
			body:    `{"items":[{"productId":"` + p.ID + `","qty":1,"unitPrice":800,"subtotal":800}]}`,
			token:   cashier,
			status:  http.StatusBadRequest,
			message: "paymentMethod is required",
		},
		{
			name:    "bad payment method",
			body:    `{"items":[{"productId":"` + p.ID + `","qty":1,"unitPrice":800,"subtotal":800}],"paymentMethod":"cheque"}`,
			token:   cashier,
			status:  http.StatusBadRequest,
			message: "paymentMethod must be one of: cash, card, online",
		},
		{
			name:    "no items",
			body:    `{"items":[],"paymentMethod":"cash"}`,
			token:   cashier,
			status:  http.StatusBadRequest,
			message: "items must have at least 1",
		},
		{
			name:    "insufficient stock",
			body:    saleBody(p.ID, 2),
			token:   cashier,
			status:  http.StatusBadRequest,
			message: "Insufficient stock for Kettle",
		},
		{
			name:   "unknown product",
			body:   saleBody(uuid.NewString(), 1),
			token:  cashier,
			status: http.StatusNotFound,
		},
		{
			name:    "no token",
			body:    saleBody(p.ID, 1),
			status:  http.StatusUnauthorized,
			message: "Unauthorized",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(http.MethodPost, "/api/sales", tt.body, tt.token)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.message != "" {
				assert.Equal(t, tt.message, decode(t, w)["error"])
			}
		})
	}

	var count int64
	require.NoError(t, e.db.Model(&models.Sale{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestReturnSale(t *testing.T) {
	e := setup(t)
	p := e.product(t, 2)
	cashier := e.token(t, models.RoleCashier)

	w := e.do(http.MethodPost, "/api/sales", saleBody(p.ID, 2), cashier)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sale := decode(t, w)
	saleID := sale["saleId"].(string)

	w = e.do(http.MethodPost, "/api/sales/"+saleID+"/return", nil, cashier)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ret := decode(t, w)
	assert.Equal(t, "Return processed", ret["message"])
	assert.Equal(t, "RTN-"+sale["billNo"].(string), ret["billNo"])

	var after models.Product
	require.NoError(t, e.db.First(&after, "id = ?", p.ID).Error)
	assert.Equal(t, 2, after.StockQty)

	// both the nested and the legacy route refuse a second return
	for _, path := range []string{"/api/sales/" + saleID + "/return", "/api/sales/" + saleID} {
		w = e.do(http.MethodPost, path, nil, cashier)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Sale already returned", decode(t, w)["error"])
	}

	w = e.do(http.MethodPost, "/api/sales/"+ret["returnId"].(string)+"/return", nil, cashier)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Cannot return a return", decode(t, w)["error"])

	w = e.do(http.MethodPost, "/api/sales/not-a-uuid/return", nil, cashier)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid ID", decode(t, w)["error"])
}

func TestReports(t *testing.T) {
	e := setup(t)
	p := e.product(t, 5)
	admin := e.token(t, models.RoleAdmin)

	w := e.do(http.MethodPost, "/api/sales", saleBody(p.ID, 1), admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(http.MethodGet, "/api/reports?type=daily", nil, e.token(t, models.RoleCashier))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodGet, "/api/reports?type=daily", nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	summary := decode(t, w)["summary"].(map[string]interface{})
	assert.EqualValues(t, 1, summary["totalSales"])
	assert.InDelta(t, 800, summary["netRevenue"], 0.001)

	w = e.do(http.MethodGet, "/api/reports?date=2026-13-40", nil, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodGet, "/api/reports/export?type=monthly", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Report-Period"))
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Reda Store")

	w = e.do(http.MethodGet, "/api/reports/valuation", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCatalogRoutes(t *testing.T) {
	e := setup(t)
	e.product(t, 4)
	e.product(t, 0)
	cashier := e.token(t, models.RoleCashier)

	w := e.do(http.MethodGet, "/api/products", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])

	w = e.do(http.MethodGet, "/api/products/categories", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["Home"]`, w.Body.String())

	w = e.do(http.MethodPost, "/api/products", gin.H{
		"name": "Toaster", "brand": "Philips", "category": "Home", "sku": "T-1",
		"gettingPrice": 1000, "sellingPrice": 1500, "stockQty": 2,
	}, cashier)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["id"].(string)

	w = e.do(http.MethodGet, "/api/products/scan/T-1", nil, cashier)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), id)

	w = e.do(http.MethodPost, "/api/products", gin.H{"name": "No SKU"}, cashier)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodDelete, "/api/products/"+id, nil, cashier)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodDelete, "/api/products/"+id, nil, e.token(t, models.RoleOwner))
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodGet, "/api/admin/products/"+id, nil, cashier)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestImages(t *testing.T) {
	e := setup(t)
	cashier := e.token(t, models.RoleCashier)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	upload := func(name, contentType string, data []byte) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="files"; filename="`+name+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, _ = part.Write(data)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/images/upload", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+cashier)
		w := httptest.NewRecorder()
		e.r.ServeHTTP(w, req)
		return w
	}

	w := upload("kettle.png", "image/png", png)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ids := decode(t, w)["fileIds"].([]interface{})
	require.Len(t, ids, 1)

	w = e.do(http.MethodGet, "/api/images/"+ids[0].(string), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=31536000", w.Header().Get("Cache-Control"))
	assert.Equal(t, png, w.Body.Bytes())

	w = upload("notes.txt", "text/plain", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Only image files are allowed", decode(t, w)["error"])
}

func TestAuthRoutes(t *testing.T) {
	e := setup(t)

	w := e.do(http.MethodPost, "/api/auth/register", gin.H{
		"name": "Nimal", "email": "nimal@reda.lk", "password": "secret1", "role": "ADMIN", "registerCode": "wrong",
	}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodPost, "/api/auth/register", gin.H{
		"name": "Nimal", "email": "nimal@reda.lk", "password": "secret1", "role": "ADMIN", "registerCode": "letmein",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(http.MethodPost, "/api/auth/login", gin.H{"email": "NIMAL@reda.lk", "password": "secret1"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.CookieName {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(session)
	w = httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	admin := decode(t, w)["admin"].(map[string]interface{})
	assert.Equal(t, "nimal@reda.lk", admin["email"])

	w = e.do(http.MethodPost, "/api/auth/login", gin.H{"email": "nimal@reda.lk", "password": "nope!!"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid email or password", decode(t, w)["error"])

	w = e.do(http.MethodPost, "/api/auth/logout", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.CookieName {
			assert.Empty(t, c.Value)
		}
	}
}

func TestStorefrontRoutes(t *testing.T) {
	e := setup(t)

	w := e.do(http.MethodGet, "/api/settings", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	settings := decode(t, w)["settings"].(map[string]interface{})
	assert.Equal(t, "Reda Store", settings["siteName"])

	w = e.do(http.MethodPost, "/api/feedback", gin.H{"name": "Kamal", "message": "Great shop", "rating": 5}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(http.MethodGet, "/api/feedback?admin=true", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodGet, "/api/feedback?admin=true", nil, e.token(t, models.RoleAdmin))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["feedback"], 1)

	w = e.do(http.MethodGet, "/api/feedback", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["feedback"])

	w = e.do(http.MethodGet, "/api/stock-requests", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = e.do(http.MethodGet, "/api/stock-requests?public=true", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOperationalRoutes(t *testing.T) {
	e := setup(t)

	w := e.do(http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, "healthy", out["status"])
	assert.Regexp(t, `^REDA-`, out["instance"])

	w = e.do(http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodGet, "/api/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not found", decode(t, w)["error"])

	w = e.do(http.MethodPost, "/api/ask", gin.H{"message": "stock?"}, e.token(t, models.RoleOwner))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = e.do(http.MethodGet, "/api/admin/audit-logs", nil, e.token(t, models.RoleOwner))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, decode(t, w)["logs"])
}
