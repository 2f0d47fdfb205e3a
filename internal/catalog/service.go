// Package catalog manages products and categories for both the public
// storefront and the admin panel.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"reda-store/internal/apperr"
	"reda-store/internal/audit"
	"reda-store/internal/models"
)

const maxImages = 5

// PublicProduct is the storefront projection: no cost price, no SKU.
type PublicProduct struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Brand        string    `json:"brand"`
	Category     string    `json:"category"`
	Description  string    `json:"description"`
	SellingPrice float64   `json:"sellingPrice"`
	StockQty     int       `json:"stockQty"`
	IsOutOfStock bool      `json:"isOutOfStock"`
	ImageFileIDs []string  `json:"imageFileIds"`
	VideoURL     string    `json:"videoUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func publicView(p models.Product) PublicProduct {
	ids := p.ImageFileIDs
	if ids == nil {
		ids = []string{}
	}
	return PublicProduct{
		ID:           p.ID,
		Name:         p.Name,
		Brand:        p.Brand,
		Category:     p.Category,
		Description:  p.Description,
		SellingPrice: p.SellingPrice,
		StockQty:     p.StockQty,
		IsOutOfStock: p.IsOutOfStock,
		ImageFileIDs: ids,
		VideoURL:     p.VideoURL,
		CreatedAt:    p.CreatedAt,
	}
}

type Query struct {
	Search            string
	Category          string
	Page              int
	Limit             int
	IncludeOutOfStock bool
	// OutOfStock filters the admin list: nil for all, true for unavailable
	// products, false for available ones.
	OutOfStock *bool
}

type PublicPage struct {
	Products []PublicProduct `json:"products"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
}

type AdminPage struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
}

// ProductInput is the full product form.
type ProductInput struct {
	Name         string   `json:"name" binding:"required"`
	Brand        string   `json:"brand" binding:"required"`
	Category     string   `json:"category" binding:"required"`
	SKU          string   `json:"sku" binding:"required"`
	Description  string   `json:"description"`
	GettingPrice float64  `json:"gettingPrice" binding:"min=0"`
	SellingPrice float64  `json:"sellingPrice" binding:"min=0"`
	StockQty     int      `json:"stockQty" binding:"min=0"`
	IsOutOfStock bool     `json:"isOutOfStock"`
	ImageFileIDs []string `json:"imageFileIds" binding:"max=5"`
	VideoURL     string   `json:"videoUrl"`
}

// ProductPatch is a partial update; nil fields stay as they are.
type ProductPatch struct {
	Name         *string   `json:"name"`
	Brand        *string   `json:"brand"`
	Category     *string   `json:"category"`
	SKU          *string   `json:"sku"`
	Description  *string   `json:"description"`
	GettingPrice *float64  `json:"gettingPrice"`
	SellingPrice *float64  `json:"sellingPrice"`
	StockQty     *int      `json:"stockQty"`
	IsOutOfStock *bool     `json:"isOutOfStock"`
	ImageFileIDs *[]string `json:"imageFileIds"`
	VideoURL     *string   `json:"videoUrl"`
}

// QuickPatch is the inline edit from the admin product table.
type QuickPatch struct {
	StockQty     *int     `json:"stockQty"`
	SellingPrice *float64 `json:"sellingPrice"`
	GettingPrice *float64 `json:"gettingPrice"`
}

// StockUpdate toggles the manual out-of-stock flag and/or restocks. A
// restock clears the flag.
type StockUpdate struct {
	IsOutOfStock *bool `json:"isOutOfStock"`
	StockQty     *int  `json:"stockQty"`
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func pageBounds(page, limit, def int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = def
	}
	return page, limit
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func searchScope(search string, columns ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		search = strings.TrimSpace(search)
		if search == "" {
			return db
		}
		pattern := likePattern(search)
		conds := make([]string, len(columns))
		args := make([]interface{}, len(columns))
		for i, c := range columns {
			conds[i] = "LOWER(" + c + ") LIKE ? ESCAPE '!'"
			args[i] = pattern
		}
		return db.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
}

func (s *Service) ListPublic(ctx context.Context, q Query) (*PublicPage, error) {
	page, limit := pageBounds(q.Page, q.Limit, 25)
	db := s.db.WithContext(ctx).Model(&models.Product{}).
		Scopes(searchScope(q.Search, "name", "brand", "description"))
	if !q.IncludeOutOfStock {
		db = db.Where("stock_qty > ? AND is_out_of_stock = ?", 0, false)
	}
	if q.Category != "" {
		db = db.Where("category = ?", q.Category)
	}
	db = db.Session(&gorm.Session{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, apperr.Storage(err)
	}
	var rows []models.Product
	if err := db.Order("created_at desc").Offset((page - 1) * limit).Limit(limit).Find(&rows).Error; err != nil {
		return nil, apperr.Storage(err)
	}
	out := make([]PublicProduct, len(rows))
	for i, p := range rows {
		out[i] = publicView(p)
	}
	return &PublicPage{Products: out, Total: total, Page: page, Limit: limit}, nil
}

func (s *Service) ListAdmin(ctx context.Context, q Query) (*AdminPage, error) {
	page, limit := pageBounds(q.Page, q.Limit, 50)
	db := s.db.WithContext(ctx).Model(&models.Product{}).
		Scopes(searchScope(q.Search, "name", "brand", "sku"))
	if q.Category != "" {
		db = db.Where("category = ?", q.Category)
	}
	if q.OutOfStock != nil {
		if *q.OutOfStock {
			db = db.Where("stock_qty <= ? OR is_out_of_stock = ?", 0, true)
		} else {
			db = db.Where("stock_qty > ? AND is_out_of_stock = ?", 0, false)
		}
	}
	db = db.Session(&gorm.Session{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, apperr.Storage(err)
	}
	rows := []models.Product{}
	if err := db.Order("created_at desc").Offset((page - 1) * limit).Limit(limit).Find(&rows).Error; err != nil {
		return nil, apperr.Storage(err)
	}
	return &AdminPage{Products: rows, Total: total, Page: page, Limit: limit}, nil
}

// Get loads the full admin record.
func (s *Service) Get(ctx context.Context, id string) (*models.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.ErrInvalidIdentifier
	}
	var p models.Product
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.NotFound, "Not found")
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &p, nil
}

// GetBySKU finds a product by its barcode. The POS scanner sends the SKU.
func (s *Service) GetBySKU(ctx context.Context, sku string) (*models.Product, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, apperr.Validation("barcode is required")
	}
	var p models.Product
	err := s.db.WithContext(ctx).Where("sku = ?", sku).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrProductNotFound
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &p, nil
}

func (s *Service) GetPublic(ctx context.Context, id string) (*PublicProduct, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	v := publicView(*p)
	return &v, nil
}

func (in ProductInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return apperr.Validation("Product name is required")
	case strings.TrimSpace(in.Brand) == "":
		return apperr.Validation("Brand is required")
	case strings.TrimSpace(in.Category) == "":
		return apperr.Validation("Category is required")
	case strings.TrimSpace(in.SKU) == "":
		return apperr.Validation("SKU is required")
	case in.GettingPrice < 0:
		return apperr.Validation("Getting price must be >= 0")
	case in.SellingPrice < 0:
		return apperr.Validation("Selling price must be >= 0")
	case in.StockQty < 0:
		return apperr.Validation("Stock must be >= 0")
	case len(in.ImageFileIDs) > maxImages:
		return apperr.Validation("Maximum 5 images allowed")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, adminID string, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	images := in.ImageFileIDs
	if images == nil {
		images = []string{}
	}
	p := models.Product{
		Name:         strings.TrimSpace(in.Name),
		Brand:        strings.TrimSpace(in.Brand),
		Category:     strings.TrimSpace(in.Category),
		SKU:          strings.TrimSpace(in.SKU),
		Description:  in.Description,
		GettingPrice: in.GettingPrice,
		SellingPrice: in.SellingPrice,
		StockQty:     in.StockQty,
		IsOutOfStock: in.IsOutOfStock,
		ImageFileIDs: images,
		VideoURL:     in.VideoURL,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.New(apperr.Conflict, "SKU already exists")
			}
			return apperr.Storage(err)
		}
		return audit.Record(ctx, tx, adminID, audit.CreateProduct, map[string]interface{}{
			"productId": p.ID,
			"name":      p.Name,
		})
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (in ProductPatch) updates() (map[string]interface{}, error) {
	u := map[string]interface{}{}
	nonEmpty := func(col, label string, v *string) error {
		if v == nil {
			return nil
		}
		if strings.TrimSpace(*v) == "" {
			return apperr.Validation(label + " is required")
		}
		u[col] = strings.TrimSpace(*v)
		return nil
	}
	if err := nonEmpty("name", "Product name", in.Name); err != nil {
		return nil, err
	}
	if err := nonEmpty("brand", "Brand", in.Brand); err != nil {
		return nil, err
	}
	if err := nonEmpty("category", "Category", in.Category); err != nil {
		return nil, err
	}
	if err := nonEmpty("sku", "SKU", in.SKU); err != nil {
		return nil, err
	}
	if in.Description != nil {
		u["description"] = *in.Description
	}
	if in.VideoURL != nil {
		u["video_url"] = *in.VideoURL
	}
	if in.IsOutOfStock != nil {
		u["is_out_of_stock"] = *in.IsOutOfStock
	}
	if err := quickUpdates(QuickPatch{StockQty: in.StockQty, SellingPrice: in.SellingPrice, GettingPrice: in.GettingPrice}, u); err != nil {
		return nil, err
	}
	if in.ImageFileIDs != nil {
		if len(*in.ImageFileIDs) > maxImages {
			return nil, apperr.Validation("Maximum 5 images allowed")
		}
		// map updates skip the field serializer, so encode like it would
		ids, err := json.Marshal(*in.ImageFileIDs)
		if err != nil {
			return nil, apperr.Validation("Invalid imageFileIds")
		}
		u["image_file_ids"] = string(ids)
	}
	return u, nil
}

func quickUpdates(in QuickPatch, u map[string]interface{}) error {
	if in.StockQty != nil {
		if *in.StockQty < 0 {
			return apperr.Validation("Stock must be >= 0")
		}
		u["stock_qty"] = *in.StockQty
	}
	if in.SellingPrice != nil {
		if *in.SellingPrice < 0 {
			return apperr.Validation("Selling price must be >= 0")
		}
		u["selling_price"] = *in.SellingPrice
	}
	if in.GettingPrice != nil {
		if *in.GettingPrice < 0 {
			return apperr.Validation("Getting price must be >= 0")
		}
		u["getting_price"] = *in.GettingPrice
	}
	return nil
}

// Update applies a partial product edit.
func (s *Service) Update(ctx context.Context, adminID, id string, in ProductPatch) (*models.Product, error) {
	u, err := in.updates()
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, adminID, id, audit.UpdateProduct, u)
}

// Patch changes only stock and prices.
func (s *Service) Patch(ctx context.Context, adminID, id string, in QuickPatch) (*models.Product, error) {
	u := map[string]interface{}{}
	if err := quickUpdates(in, u); err != nil {
		return nil, err
	}
	if len(u) == 0 {
		return nil, apperr.Validation("Nothing to update")
	}
	return s.apply(ctx, adminID, id, audit.PatchProduct, u)
}

func (s *Service) SetStock(ctx context.Context, adminID, id string, in StockUpdate) (*models.Product, error) {
	u := map[string]interface{}{}
	if in.IsOutOfStock != nil {
		u["is_out_of_stock"] = *in.IsOutOfStock
	}
	if in.StockQty != nil {
		if *in.StockQty < 0 {
			return nil, apperr.Validation("Stock must be >= 0")
		}
		u["stock_qty"] = *in.StockQty
		u["is_out_of_stock"] = false
	}
	if len(u) == 0 {
		return nil, apperr.Validation("Nothing to update")
	}
	return s.apply(ctx, adminID, id, audit.RestockItem, u)
}

// UpdatePrice sets the selling price. Used by the admin assistant.
func (s *Service) UpdatePrice(ctx context.Context, adminID, id string, price float64) (*models.Product, error) {
	if price < 0 {
		return nil, apperr.Validation("Selling price must be >= 0")
	}
	return s.apply(ctx, adminID, id, audit.AIPriceChange, map[string]interface{}{"selling_price": price})
}

func (s *Service) apply(ctx context.Context, adminID, id, action string, u map[string]interface{}) (*models.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.ErrInvalidIdentifier
	}
	var p models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Take(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.NotFound, "Not found")
			}
			return apperr.Storage(err)
		}
		if len(u) > 0 {
			if err := tx.Model(&p).Updates(u).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return apperr.New(apperr.Conflict, "SKU already exists")
				}
				return apperr.Storage(err)
			}
		}
		if err := tx.Where("id = ?", id).Take(&p).Error; err != nil {
			return apperr.Storage(err)
		}
		fields := make([]string, 0, len(u))
		for k := range u {
			fields = append(fields, k)
		}
		sort.Strings(fields)
		return audit.Record(ctx, tx, adminID, action, map[string]interface{}{
			"productId": id,
			"fields":    fields,
		})
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) Delete(ctx context.Context, adminID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.ErrInvalidIdentifier
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&models.Product{})
		if res.Error != nil {
			return apperr.Storage(res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.NotFound, "Not found")
		}
		return audit.Record(ctx, tx, adminID, audit.DeleteProduct, map[string]interface{}{"productId": id})
	})
}

// Inventory returns every product ordered by name.
func (s *Service) Inventory(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	if err := s.db.WithContext(ctx).Order("name asc").Find(&rows).Error; err != nil {
		return nil, apperr.Storage(err)
	}
	return rows, nil
}
