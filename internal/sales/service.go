package sales

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"reda-store/internal/apperr"
	"reda-store/internal/audit"
	"reda-store/internal/events"
	"reda-store/internal/logging"
	"reda-store/internal/metrics"
	"reda-store/internal/models"
)

var tracer = otel.Tracer("sales")

type ItemInput struct {
	ProductID    string  `json:"productId" binding:"required"`
	ProductName  string  `json:"productName"`
	SKU          string  `json:"sku"`
	Qty          int     `json:"qty" binding:"required,min=1"`
	UnitPrice    float64 `json:"unitPrice" binding:"min=0"`
	GettingPrice float64 `json:"gettingPrice" binding:"min=0"`
	Subtotal     float64 `json:"subtotal" binding:"min=0"`
}

type CreateSaleInput struct {
	Items         []ItemInput `json:"items" binding:"required,min=1,dive"`
	Discount      float64     `json:"discount" binding:"min=0"`
	DiscountType  string      `json:"discountType" binding:"omitempty,oneof=flat percent"`
	PaymentMethod string      `json:"paymentMethod" binding:"required,oneof=cash card online"`
}

// Receipt is what the cashier gets back after a committed sale.
type Receipt struct {
	SaleID string  `json:"saleId"`
	BillNo string  `json:"billNo"`
	Total  float64 `json:"total"`
	Profit float64 `json:"profit"`
}

type ReturnReceipt struct {
	ReturnID string `json:"returnId"`
	BillNo   string `json:"billNo"`
}

type Page struct {
	Sales []models.Sale `json:"sales"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

type Service struct {
	db        *gorm.DB
	seq       Sequencer
	publisher events.Publisher
	prefix    string
	loc       *time.Location
	now       func() time.Time
}

type Option func(*Service)

func WithSequencer(seq Sequencer) Option {
	return func(s *Service) { s.seq = seq }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(db *gorm.DB, billPrefix string, loc *time.Location, opts ...Option) *Service {
	if loc == nil {
		loc = time.UTC
	}
	s := &Service{
		db:        db,
		seq:       DBSequencer{},
		publisher: events.Nop{},
		prefix:    billPrefix,
		loc:       loc,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (in *CreateSaleInput) normalize() error {
	if len(in.Items) == 0 {
		return apperr.Validation("At least one item required")
	}
	if in.DiscountType == "" {
		in.DiscountType = models.DiscountFlat
	}
	if in.DiscountType != models.DiscountFlat && in.DiscountType != models.DiscountPercent {
		return apperr.Validation("discountType must be flat or percent")
	}
	switch in.PaymentMethod {
	case "cash", "card", "online":
	default:
		return apperr.Validation("paymentMethod must be cash, card or online")
	}
	if in.Discount < 0 {
		return apperr.Validation("discount must not be negative")
	}
	for i, it := range in.Items {
		if strings.TrimSpace(it.ProductID) == "" {
			return apperr.Newf(apperr.ValidationFailed, "items[%d].productId is required", i)
		}
		if it.Qty < 1 {
			return apperr.Newf(apperr.ValidationFailed, "items[%d].qty must be at least 1", i)
		}
		if it.UnitPrice < 0 || it.GettingPrice < 0 || it.Subtotal < 0 {
			return apperr.Newf(apperr.ValidationFailed, "items[%d] prices must not be negative", i)
		}
		if !lineSubtotalMatches(Line{Qty: it.Qty, UnitPrice: it.UnitPrice, Subtotal: it.Subtotal}) {
			return apperr.Newf(apperr.ValidationFailed, "items[%d].subtotal must equal qty x unitPrice", i)
		}
	}
	return nil
}

// ValidateItems checks every line against current stock without changing
// anything. Lines for the same product are checked against their summed qty.
func (s *Service) ValidateItems(ctx context.Context, items []ItemInput) error {
	_, err := checkStock(s.db.WithContext(ctx), items)
	return err
}

func checkStock(db *gorm.DB, items []ItemInput) (map[string]models.Product, error) {
	products := make(map[string]models.Product, len(items))
	requested := make(map[string]int, len(items))
	for _, it := range items {
		if _, err := uuid.Parse(it.ProductID); err != nil {
			return nil, apperr.ErrInvalidIdentifier
		}
		p, ok := products[it.ProductID]
		if !ok {
			err := db.Where("id = ?", it.ProductID).Take(&p).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.Newf(apperr.ProductNotFound, "Product %s not found", it.ProductID)
			}
			if err != nil {
				return nil, apperr.Storage(err)
			}
			products[it.ProductID] = p
		}
		requested[it.ProductID] += it.Qty
		if p.StockQty < requested[it.ProductID] {
			return nil, apperr.Newf(apperr.InsufficientStock, "Insufficient stock for %s", p.Name)
		}
	}
	return products, nil
}

// Create validates, prices and commits a sale in one transaction: bill
// number, sale record, conditional stock decrements and the audit entry.
func (s *Service) Create(ctx context.Context, adminID string, in CreateSaleInput) (*Receipt, error) {
	ctx, span := tracer.Start(ctx, "sales.Create")
	defer span.End()

	if err := in.normalize(); err != nil {
		return nil, s.fail(ctx, "create_sale", err)
	}

	now := s.now().UTC()
	var sale models.Sale
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products, err := checkStock(tx, in.Items)
		if err != nil {
			return err
		}

		lines := make([]Line, 0, len(in.Items))
		items := make([]models.SaleItem, 0, len(in.Items))
		for _, it := range in.Items {
			p := products[it.ProductID]
			lines = append(lines, Line{Qty: it.Qty, UnitPrice: it.UnitPrice, GettingPrice: it.GettingPrice, Subtotal: it.Subtotal})
			items = append(items, models.SaleItem{
				ProductID:    p.ID,
				ProductName:  p.Name,
				SKU:          p.SKU,
				Qty:          it.Qty,
				UnitPrice:    it.UnitPrice,
				GettingPrice: it.GettingPrice,
				Subtotal:     it.Subtotal,
			})
		}
		totals := ComputeTotals(lines, in.Discount, in.DiscountType)

		day := now.In(s.loc).Format(dayLayout)
		seq, err := s.seq.Next(ctx, tx, day)
		if err != nil {
			return err
		}

		sale = models.Sale{
			BillNo:         FormatBillNo(s.prefix, day, seq),
			Items:          items,
			Subtotal:       totals.Subtotal,
			Discount:       in.Discount,
			DiscountType:   in.DiscountType,
			DiscountAmount: totals.DiscountAmount,
			Total:          totals.Total,
			TotalCost:      totals.TotalCost,
			Profit:         totals.Profit,
			PaymentMethod:  in.PaymentMethod,
			Type:           models.SaleTypeSale,
			CreatedBy:      adminID,
			CreatedAt:      now,
		}
		if err := tx.Create(&sale).Error; err != nil {
			return apperr.Storage(err)
		}

		for _, q := range quantities(items) {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock_qty >= ?", q.productID, q.qty).
				Updates(map[string]interface{}{
					"stock_qty":  gorm.Expr("stock_qty - ?", q.qty),
					"updated_at": now,
				})
			if res.Error != nil {
				return apperr.Storage(res.Error)
			}
			if res.RowsAffected == 0 {
				return apperr.Newf(apperr.InsufficientStock, "Insufficient stock for %s", products[q.productID].Name)
			}
		}

		return audit.Record(ctx, tx, adminID, audit.CreateSale, map[string]interface{}{
			"saleId": sale.ID,
			"billNo": sale.BillNo,
			"total":  sale.Total,
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperr.Message(err))
		return nil, s.fail(ctx, "create_sale", err)
	}

	span.SetAttributes(attribute.String("sale.bill_no", sale.BillNo))
	logging.WithFields(ctx, map[string]interface{}{
		"sale_id":  sale.ID,
		"bill_no":  sale.BillNo,
		"total":    sale.Total,
		"admin_id": adminID,
	}).Info("sale committed")
	s.afterCommit(ctx, events.SaleCreated, &sale)

	return &Receipt{SaleID: sale.ID, BillNo: sale.BillNo, Total: sale.Total, Profit: sale.Profit}, nil
}

// Return records the compensating RETURN for a sale and puts its stock
// back. Products deleted since the sale are skipped.
func (s *Service) Return(ctx context.Context, adminID, saleID string) (*ReturnReceipt, error) {
	ctx, span := tracer.Start(ctx, "sales.Return")
	defer span.End()

	if _, err := uuid.Parse(saleID); err != nil {
		return nil, s.fail(ctx, "return_sale", apperr.ErrInvalidIdentifier)
	}

	now := s.now().UTC()
	var ret models.Sale
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var original models.Sale
		err := tx.Preload("Items").Where("id = ?", saleID).Take(&original).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrSaleNotFound
		}
		if err != nil {
			return apperr.Storage(err)
		}
		if original.Type == models.SaleTypeReturn {
			return apperr.ErrCannotReturnAReturn
		}

		var existing int64
		if err := tx.Model(&models.Sale{}).Where("original_sale_id = ?", original.ID).Count(&existing).Error; err != nil {
			return apperr.Storage(err)
		}
		if existing > 0 {
			return apperr.ErrAlreadyReturned
		}

		items := make([]models.SaleItem, len(original.Items))
		for i, it := range original.Items {
			it.ID = 0
			it.SaleID = ""
			items[i] = it
		}
		originalID := original.ID
		ret = models.Sale{
			BillNo:         ReturnBillNo(original.BillNo),
			Items:          items,
			Subtotal:       original.Subtotal,
			Discount:       original.Discount,
			DiscountType:   original.DiscountType,
			DiscountAmount: original.DiscountAmount,
			Total:          original.Total,
			TotalCost:      original.TotalCost,
			Profit:         -original.Profit,
			PaymentMethod:  original.PaymentMethod,
			Type:           models.SaleTypeReturn,
			OriginalSaleID: &originalID,
			CreatedBy:      adminID,
			CreatedAt:      now,
		}
		if err := tx.Create(&ret).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.ErrAlreadyReturned
			}
			return apperr.Storage(err)
		}

		for _, q := range quantities(items) {
			// zero rows means the product is gone; nothing to restock
			if err := tx.Model(&models.Product{}).
				Where("id = ?", q.productID).
				Updates(map[string]interface{}{
					"stock_qty":  gorm.Expr("stock_qty + ?", q.qty),
					"updated_at": now,
				}).Error; err != nil {
				return apperr.Storage(err)
			}
		}

		return audit.Record(ctx, tx, adminID, audit.ReturnSale, map[string]interface{}{
			"returnId": ret.ID,
			"saleId":   original.ID,
			"billNo":   ret.BillNo,
			"total":    ret.Total,
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperr.Message(err))
		return nil, s.fail(ctx, "return_sale", err)
	}

	logging.WithFields(ctx, map[string]interface{}{
		"return_id": ret.ID,
		"bill_no":   ret.BillNo,
		"sale_id":   saleID,
		"admin_id":  adminID,
	}).Info("sale returned")
	s.afterCommit(ctx, events.SaleReturned, &ret)

	return &ReturnReceipt{ReturnID: ret.ID, BillNo: ret.BillNo}, nil
}

// List pages through sales and returns, newest first.
func (s *Service) List(ctx context.Context, page, limit int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 20
	}
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Sale{}).Count(&total).Error; err != nil {
		return nil, apperr.Storage(err)
	}
	var rows []models.Sale
	if err := db.Preload("Items").
		Order("created_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, apperr.Storage(err)
	}
	return &Page{Sales: rows, Total: total, Page: page, Limit: limit}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Sale, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.ErrInvalidIdentifier
	}
	var sale models.Sale
	err := s.db.WithContext(ctx).Preload("Items").Where("id = ?", id).Take(&sale).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrSaleNotFound
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &sale, nil
}

type productQty struct {
	productID string
	qty       int
}

// quantities sums the lines per product, ordered by product id so every
// transaction locks product rows in the same order.
func quantities(items []models.SaleItem) []productQty {
	sums := make(map[string]int, len(items))
	for _, it := range items {
		sums[it.ProductID] += it.Qty
	}
	out := make([]productQty, 0, len(sums))
	for id, qty := range sums {
		out = append(out, productQty{productID: id, qty: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].productID < out[j].productID })
	return out
}

func (s *Service) fail(ctx context.Context, op string, err error) error {
	kind := apperr.KindOf(err)
	metrics.ObserveFailure(op, string(kind))
	entry := logging.WithFields(ctx, map[string]interface{}{"operation": op, "kind": kind})
	if kind == apperr.StorageUnavailable {
		entry.WithError(err).Error("sale operation failed")
	} else {
		entry.Info(apperr.Message(err))
	}
	return err
}

func (s *Service) afterCommit(ctx context.Context, eventType string, sale *models.Sale) {
	units := 0
	items := make([]events.ItemPayload, 0, len(sale.Items))
	for _, it := range sale.Items {
		units += it.Qty
		items = append(items, events.ItemPayload{ProductID: it.ProductID, Quantity: it.Qty})
	}
	metrics.ObserveSale(sale.Type, sale.Total, units)

	payload := events.SalePayload{
		SaleID:        sale.ID,
		BillNo:        sale.BillNo,
		Type:          sale.Type,
		Total:         sale.Total,
		Profit:        sale.Profit,
		PaymentMethod: sale.PaymentMethod,
		Items:         items,
		CreatedBy:     sale.CreatedBy,
		CreatedAt:     sale.CreatedAt,
	}
	key := sale.ID
	if sale.OriginalSaleID != nil {
		payload.OriginalSaleID = *sale.OriginalSaleID
		key = *sale.OriginalSaleID
	}
	if err := s.publisher.Publish(ctx, key, events.NewEvent(eventType, payload)); err != nil {
		logging.WithContext(ctx).WithError(err).Warnf("failed to publish %s for %s", eventType, sale.BillNo)
	}
}
