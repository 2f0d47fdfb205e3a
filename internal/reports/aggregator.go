package reports

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"reda-store/internal/apperr"
	"reda-store/internal/models"
)

var tracer = otel.Tracer("reports")

type PeriodInfo struct {
	Type      Period    `json:"type"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

type Summary struct {
	TotalRevenue     float64 `json:"totalRevenue"`
	TotalCost        float64 `json:"totalCost"`
	TotalDiscount    float64 `json:"totalDiscount"`
	TotalReturns     float64 `json:"totalReturns"`
	NetRevenue       float64 `json:"netRevenue"`
	NetProfit        float64 `json:"netProfit"`
	TotalSales       int     `json:"totalSales"`
	TotalReturnCount int     `json:"totalReturnCount"`
}

type ItemLine struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Qty       int     `json:"qty"`
	Revenue   float64 `json:"revenue"`
}

type DeadStockItem struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	SKU          string  `json:"sku"`
	StockQty     int     `json:"stockQty"`
	SellingPrice float64 `json:"sellingPrice"`
}

type Report struct {
	Period        PeriodInfo      `json:"period"`
	Summary       Summary         `json:"summary"`
	ItemBreakdown []ItemLine      `json:"itemBreakdown"`
	DeadStock     []DeadStockItem `json:"deadStock"`

	window Window
	sales  []models.Sale
}

// Label is the export period label.
func (r *Report) Label() string { return r.window.Label() }

// Sales lists the SALE records of the period in time order.
func (r *Report) Sales() []models.Sale { return r.sales }

type Aggregator struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

func NewAggregator(db *gorm.DB, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{db: db, loc: loc, now: time.Now}
}

// Build parses the query strings and aggregates.
func (a *Aggregator) Build(ctx context.Context, periodType, date string) (*Report, error) {
	anchor, err := ParseAnchor(date, a.loc, a.now())
	if err != nil {
		return nil, err
	}
	return a.Aggregate(ctx, ParsePeriod(periodType), anchor)
}

// Aggregate summarizes sales and returns created inside the period that
// contains anchor. Read-only.
func (a *Aggregator) Aggregate(ctx context.Context, p Period, anchor time.Time) (*Report, error) {
	ctx, span := tracer.Start(ctx, "reports.Aggregate")
	defer span.End()

	return a.aggregate(ctx, WindowFor(p, anchor.In(a.loc)))
}

// AggregateRange summarizes whole days from one date through another.
func (a *Aggregator) AggregateRange(ctx context.Context, from, to string) (*Report, error) {
	ctx, span := tracer.Start(ctx, "reports.AggregateRange")
	defer span.End()

	w, err := RangeWindow(from, to, a.loc)
	if err != nil {
		return nil, err
	}
	return a.aggregate(ctx, w)
}

func (a *Aggregator) aggregate(ctx context.Context, w Window) (*Report, error) {
	db := a.db.WithContext(ctx)

	var records []models.Sale
	if err := db.Preload("Items").
		Where("created_at >= ? AND created_at <= ?", w.Start.UTC(), w.End.UTC()).
		Where("type IN ?", []string{models.SaleTypeSale, models.SaleTypeReturn}).
		Order("created_at asc").
		Find(&records).Error; err != nil {
		return nil, apperr.Storage(err)
	}

	var (
		revenue, cost, discount, returns = decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
		summary                          Summary
		sales                            []models.Sale
	)
	byProduct := map[string]*ItemLine{}
	itemRevenue := map[string]decimal.Decimal{}

	for _, s := range records {
		if s.Type == models.SaleTypeReturn {
			returns = returns.Add(decimal.NewFromFloat(s.Total))
			summary.TotalReturnCount++
			continue
		}
		sales = append(sales, s)
		summary.TotalSales++
		revenue = revenue.Add(decimal.NewFromFloat(s.Total))
		cost = cost.Add(decimal.NewFromFloat(s.TotalCost))
		discount = discount.Add(decimal.NewFromFloat(s.DiscountAmount))
		for _, it := range s.Items {
			line, ok := byProduct[it.ProductID]
			if !ok {
				line = &ItemLine{ProductID: it.ProductID, Name: it.ProductName}
				byProduct[it.ProductID] = line
			}
			line.Qty += it.Qty
			itemRevenue[it.ProductID] = itemRevenue[it.ProductID].Add(decimal.NewFromFloat(it.Subtotal))
		}
	}

	netRevenue := revenue.Sub(returns)
	summary.TotalRevenue = revenue.InexactFloat64()
	summary.TotalCost = cost.InexactFloat64()
	summary.TotalDiscount = discount.InexactFloat64()
	summary.TotalReturns = returns.InexactFloat64()
	summary.NetRevenue = netRevenue.InexactFloat64()
	summary.NetProfit = netRevenue.Sub(cost).InexactFloat64()

	breakdown := make([]ItemLine, 0, len(byProduct))
	for id, line := range byProduct {
		line.Revenue = itemRevenue[id].InexactFloat64()
		breakdown = append(breakdown, *line)
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].Qty != breakdown[j].Qty {
			return breakdown[i].Qty > breakdown[j].Qty
		}
		return breakdown[i].Name < breakdown[j].Name
	})

	var inStock []models.Product
	if err := db.Where("stock_qty > ?", 0).Order("name asc").Find(&inStock).Error; err != nil {
		return nil, apperr.Storage(err)
	}
	dead := make([]DeadStockItem, 0)
	for _, p := range inStock {
		if _, sold := byProduct[p.ID]; sold {
			continue
		}
		dead = append(dead, DeadStockItem{ID: p.ID, Name: p.Name, SKU: p.SKU, StockQty: p.StockQty, SellingPrice: p.SellingPrice})
	}

	return &Report{
		Period:        PeriodInfo{Type: w.Type, StartDate: w.Start, EndDate: w.End},
		Summary:       summary,
		ItemBreakdown: breakdown,
		DeadStock:     dead,
		window:        w,
		sales:         sales,
	}, nil
}
