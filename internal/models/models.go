package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Admin roles
const (
	RoleOwner   = "OWNER"
	RoleAdmin   = "ADMIN"
	RoleCashier = "CASHIER"
)

// Sale record types
const (
	SaleTypeSale   = "SALE"
	SaleTypeReturn = "RETURN"
)

const (
	DiscountFlat    = "flat"
	DiscountPercent = "percent"
)

func assignID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// Admin - a back-office account (owner, admin or cashier)
type Admin struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Name         string    `gorm:"size:120" json:"name"`
	Email        string    `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string    `json:"-"` // Never return this in JSON
	Role         string    `gorm:"size:16" json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (a *Admin) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}

// Product - the catalog and the inventory in one record
type Product struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Name         string    `gorm:"size:200;index" json:"name"`
	Brand        string    `gorm:"size:120" json:"brand"`
	Category     string    `gorm:"size:120;index" json:"category"`
	SKU          string    `gorm:"column:sku;uniqueIndex;size:80" json:"sku"`
	Description  string    `gorm:"type:text" json:"description"`
	GettingPrice float64   `json:"gettingPrice"`
	SellingPrice float64   `json:"sellingPrice"`
	StockQty     int       `gorm:"not null;default:0" json:"stockQty"`
	IsOutOfStock bool      `gorm:"not null;default:false" json:"isOutOfStock"`
	ImageFileIDs []string  `gorm:"serializer:json;type:text" json:"imageFileIds"`
	VideoURL     string    `gorm:"size:500" json:"videoUrl,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// Available reports whether the storefront may offer the product.
func (p Product) Available() bool {
	return p.StockQty > 0 && !p.IsOutOfStock
}

// Sale - a committed SALE or its compensating RETURN. Never updated.
type Sale struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	BillNo         string     `gorm:"uniqueIndex;size:48" json:"billNo"`
	Items          []SaleItem `gorm:"foreignKey:SaleID" json:"items"`
	Subtotal       float64    `json:"subtotal"`
	Discount       float64    `json:"discount"`
	DiscountType   string     `gorm:"size:8" json:"discountType"`
	DiscountAmount float64    `json:"discountAmount"`
	Total          float64    `json:"total"`
	TotalCost      float64    `json:"totalCost"`
	Profit         float64    `json:"profit"`
	PaymentMethod  string     `gorm:"size:8" json:"paymentMethod"`
	Type           string     `gorm:"size:8;index" json:"type"`
	OriginalSaleID *string    `gorm:"size:36;uniqueIndex" json:"originalSaleId,omitempty"`
	CreatedBy      string     `gorm:"size:36" json:"createdBy"`
	CreatedAt      time.Time  `gorm:"index" json:"createdAt"`
}

func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}

// SaleItem - one line of a sale with the product snapshot at sale time
type SaleItem struct {
	ID           uint    `gorm:"primaryKey" json:"-"`
	SaleID       string  `gorm:"size:36;index" json:"-"`
	ProductID    string  `gorm:"size:36;index" json:"productId"`
	ProductName  string  `gorm:"size:200" json:"productName"`
	SKU          string  `gorm:"column:sku;size:80" json:"sku"`
	Qty          int     `json:"qty"`
	UnitPrice    float64 `json:"unitPrice"`
	GettingPrice float64 `json:"gettingPrice"`
	Subtotal     float64 `json:"subtotal"`
}

// BillSequence - per-day bill counter. Day is YYYYMMDD in the store time zone.
type BillSequence struct {
	Day     string `gorm:"primaryKey;size:8"`
	Counter int64  `gorm:"not null;default:0"`
}

// AuditLog - who did what to which record
type AuditLog struct {
	ID        uint                   `gorm:"primaryKey" json:"id"`
	Action    string                 `gorm:"size:40;index" json:"action"`
	AdminID   string                 `gorm:"size:36;index" json:"adminId"`
	Details   map[string]interface{} `gorm:"serializer:json;type:text" json:"details"`
	CreatedAt time.Time              `json:"createdAt"`
}

// Settings - the single storefront settings row (ID is always 1)
type Settings struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	SiteName       string    `gorm:"size:120" json:"siteName"`
	WhatsAppNumber string    `gorm:"size:30" json:"whatsappNumber"`
	BannerImages   []string  `gorm:"serializer:json;type:text" json:"bannerImages"`
	SliderImages   []string  `gorm:"serializer:json;type:text" json:"sliderImages"`
	Address        string    `gorm:"size:300" json:"address"`
	Email          string    `gorm:"size:255" json:"email"`
	FooterText     string    `gorm:"size:500" json:"footerText"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Feedback statuses
const (
	FeedbackPending  = "pending"
	FeedbackApproved = "approved"
	FeedbackRejected = "rejected"
)

type Feedback struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:80" json:"name"`
	Message   string    `gorm:"type:text" json:"message"`
	Rating    int       `json:"rating"`
	Status    string    `gorm:"size:16;index" json:"status"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (f *Feedback) BeforeCreate(tx *gorm.DB) error {
	assignID(&f.ID)
	return nil
}

// Stock request statuses
const (
	StockRequestPending   = "pending"
	StockRequestFulfilled = "fulfilled"
	StockRequestRejected  = "rejected"
)

// StockRequest - a customer asking for an item the shop does not carry right now
type StockRequest struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:80" json:"name"`
	Phone     string    `gorm:"size:30" json:"phone"`
	ItemName  string    `gorm:"size:200" json:"itemName"`
	Details   string    `gorm:"size:500" json:"details,omitempty"`
	Status    string    `gorm:"size:16;index" json:"status"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (r *StockRequest) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	return nil
}

// CustomCategory - a category created by an admin before any product uses it
type CustomCategory struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Name      string    `gorm:"uniqueIndex;size:120" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Image - an uploaded blob. Data is never serialized.
type Image struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Filename    string    `gorm:"size:255" json:"filename"`
	ContentType string    `gorm:"size:100" json:"contentType"`
	Size        int64     `json:"size"`
	Data        []byte    `json:"-"`
	UploadedBy  string    `gorm:"size:36" json:"uploadedBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (i *Image) BeforeCreate(tx *gorm.DB) error {
	assignID(&i.ID)
	return nil
}

// All lists every model for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Admin{},
		&Product{},
		&Sale{},
		&SaleItem{},
		&BillSequence{},
		&AuditLog{},
		&Settings{},
		&Feedback{},
		&StockRequest{},
		&CustomCategory{},
		&Image{},
	}
}

func (Feedback) TableName() string {
	return "feedback"
}
