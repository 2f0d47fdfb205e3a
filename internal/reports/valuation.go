package reports

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"reda-store/internal/apperr"
	"reda-store/internal/models"
)

// ValuationItem is one product line of the stock valuation sheet.
type ValuationItem struct {
	Name      string  `json:"name"`
	SKU       string  `json:"sku"`
	Quantity  int     `json:"quantity"`
	CostPrice float64 `json:"costPrice"`
	TotalCost float64 `json:"totalCost"`
}

type CategoryGroup struct {
	CategoryName string          `json:"categoryName"`
	Items        []ValuationItem `json:"items"`
	Subtotal     float64         `json:"subtotal"`
}

type Valuation struct {
	Categories []CategoryGroup `json:"categories"`
	GrandTotal float64         `json:"grandTotal"`
}

// StockValuation prices the stock on hand at cost, grouped by category.
func (a *Aggregator) StockValuation(ctx context.Context) (*Valuation, error) {
	var products []models.Product
	if err := a.db.WithContext(ctx).Where("stock_qty > ?", 0).Order("name asc").Find(&products).Error; err != nil {
		return nil, apperr.Storage(err)
	}

	grand := decimal.Zero
	groups := map[string]*CategoryGroup{}
	subtotals := map[string]decimal.Decimal{}
	for _, p := range products {
		cat := p.Category
		if cat == "" {
			cat = "Uncategorized"
		}
		if _, ok := groups[cat]; !ok {
			groups[cat] = &CategoryGroup{CategoryName: cat, Items: []ValuationItem{}}
		}

		lineTotal := decimal.NewFromFloat(p.GettingPrice).Mul(decimal.NewFromInt(int64(p.StockQty)))
		groups[cat].Items = append(groups[cat].Items, ValuationItem{
			Name:      p.Name,
			SKU:       p.SKU,
			Quantity:  p.StockQty,
			CostPrice: p.GettingPrice,
			TotalCost: lineTotal.InexactFloat64(),
		})
		subtotals[cat] = subtotals[cat].Add(lineTotal)
		grand = grand.Add(lineTotal)
	}

	out := &Valuation{Categories: make([]CategoryGroup, 0, len(groups)), GrandTotal: grand.InexactFloat64()}
	for cat, g := range groups {
		g.Subtotal = subtotals[cat].InexactFloat64()
		out.Categories = append(out.Categories, *g)
	}
	sort.Slice(out.Categories, func(i, j int) bool {
		return out.Categories[i].CategoryName < out.Categories[j].CategoryName
	})
	return out, nil
}
