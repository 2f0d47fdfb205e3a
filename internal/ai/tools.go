package ai

import (
	"context"
	"encoding/json"

	"github.com/google/generative-ai-go/genai"

	"reda-store/internal/apperr"
	"reda-store/internal/models"
	"reda-store/internal/reports"
)

const (
	toolInventory   = "check_inventory"
	toolUpdatePrice = "update_product_price"
	toolSalesReport = "get_sales_report"
)

type Catalog interface {
	Inventory(ctx context.Context) ([]models.Product, error)
	UpdatePrice(ctx context.Context, adminID, id string, price float64) (*models.Product, error)
}

type Reports interface {
	AggregateRange(ctx context.Context, from, to string) (*reports.Report, error)
}

// Tools executes the functions the model may call.
type Tools struct {
	catalog Catalog
	reports Reports
}

func NewTools(c Catalog, r Reports) *Tools {
	return &Tools{catalog: c, reports: r}
}

func Declarations() []*genai.FunctionDeclaration {
	return []*genai.FunctionDeclaration{
		{
			Name:        toolInventory,
			Description: "Get the full inventory list. Use this to find ANY product details like ID, Name, SKU, Price, Cost, or Stock.",
		},
		{
			Name:        toolUpdatePrice,
			Description: "Update the selling price of a specific product using its ID",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"product_id": {Type: genai.TypeString, Description: "ID of the product"},
					"new_price":  {Type: genai.TypeNumber, Description: "New selling price"},
				},
				Required: []string{"product_id", "new_price"},
			},
		},
		{
			Name:        toolSalesReport,
			Description: "Get revenue, returns, cost and profit for a date range, inclusive.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
					"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD)"},
				},
				Required: []string{"start_date", "end_date"},
			},
		},
	}
}

type inventoryItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	SKU      string  `json:"sku"`
	Category string  `json:"category"`
	Stock    int     `json:"stock"`
	Price    float64 `json:"price"`
	Cost     float64 `json:"cost"`
}

func failure(err error) map[string]interface{} {
	return map[string]interface{}{"status": "error", "error": apperr.Message(err)}
}

// Call runs one tool. Errors go back to the model as a response so it can
// explain them to the user.
func (t *Tools) Call(ctx context.Context, adminID, name string, args map[string]interface{}) map[string]interface{} {
	switch name {
	case toolInventory:
		products, err := t.catalog.Inventory(ctx)
		if err != nil {
			return failure(err)
		}
		items := make([]inventoryItem, len(products))
		for i, p := range products {
			items[i] = inventoryItem{
				ID: p.ID, Name: p.Name, SKU: p.SKU, Category: p.Category,
				Stock: p.StockQty, Price: p.SellingPrice, Cost: p.GettingPrice,
			}
		}
		// responses must be plain values, so the list travels as JSON text
		raw, err := json.Marshal(items)
		if err != nil {
			return failure(err)
		}
		return map[string]interface{}{"inventory": string(raw)}

	case toolUpdatePrice:
		id, _ := args["product_id"].(string)
		price, ok := args["new_price"].(float64)
		if id == "" || !ok {
			return failure(apperr.Validation("product_id and new_price are required"))
		}
		p, err := t.catalog.UpdatePrice(ctx, adminID, id, price)
		if err != nil {
			return failure(err)
		}
		return map[string]interface{}{"status": "Success", "name": p.Name, "new_price": p.SellingPrice}

	case toolSalesReport:
		from, _ := args["start_date"].(string)
		to, _ := args["end_date"].(string)
		r, err := t.reports.AggregateRange(ctx, from, to)
		if err != nil {
			return failure(err)
		}
		return map[string]interface{}{
			"revenue":      r.Summary.TotalRevenue,
			"returns":      r.Summary.TotalReturns,
			"net_revenue":  r.Summary.NetRevenue,
			"net_profit":   r.Summary.NetProfit,
			"sales_count":  r.Summary.TotalSales,
			"return_count": r.Summary.TotalReturnCount,
		}
	}
	return failure(apperr.Validation("unknown tool " + name))
}
