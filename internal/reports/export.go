package reports

import (
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"reda-store/internal/models"
)

var exportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"rs":    FormatRs,
	"title": func(p Period) string { s := string(p); return strings.ToUpper(s[:1]) + s[1:] },
	"stamp": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
}).Parse(`<!DOCTYPE html><html><head><meta charset="UTF-8"><title>{{.SiteName}} {{title .Report.Period.Type}} Report</title><style>
body{font-family:Arial,sans-serif;padding:24px;color:#111}h1{color:#1a56db}
table{width:100%;border-collapse:collapse;margin-top:16px}
th,td{padding:8px 12px;border:1px solid #ddd;text-align:left;font-size:13px}
th{background:#1a56db;color:white}tr:nth-child(even){background:#f5f7ff}
.summary{display:flex;gap:24px;flex-wrap:wrap;margin:20px 0}
.card{background:#f5f7ff;border-radius:8px;padding:16px 24px;min-width:160px}
.card h3{margin:0 0 4px;font-size:12px;color:#666;text-transform:uppercase}
.card p{margin:0;font-size:20px;font-weight:bold;color:#1a56db}
.card p.loss{color:#dc2626}.card p.gain{color:#16a34a}
</style></head><body>
<h1>{{.SiteName}} - {{title .Report.Period.Type}} Report</h1>
<p>Period: <strong>{{.Label}}</strong> | Generated: {{stamp .Generated}}</p>
{{with .Report.Summary}}<div class="summary">
<div class="card"><h3>Total Revenue</h3><p>{{rs .TotalRevenue}}</p></div>
<div class="card"><h3>Returns</h3><p>{{rs .TotalReturns}}</p></div>
<div class="card"><h3>Net Revenue</h3><p>{{rs .NetRevenue}}</p></div>
<div class="card"><h3>Cost</h3><p>{{rs .TotalCost}}</p></div>
<div class="card"><h3>Net Profit</h3><p class="{{if lt .NetProfit 0.0}}loss{{else}}gain{{end}}">{{rs .NetProfit}}</p></div>
<div class="card"><h3>Total Sales</h3><p>{{.TotalSales}}</p></div>
</div>{{end}}
<h2>Sales ({{len .Sales}})</h2>
<table><thead><tr><th>Bill No</th><th>Date/Time</th><th>Items</th><th>Total</th><th>Payment</th></tr></thead>
<tbody>{{range .Sales}}<tr><td>{{.BillNo}}</td><td>{{stamp ($.Local .CreatedAt)}}</td><td>{{len .Items}}</td><td>{{rs .Total}}</td><td>{{.PaymentMethod}}</td></tr>
{{else}}<tr><td colspan="5" style="text-align:center">No sales in this period</td></tr>{{end}}</tbody></table>
</body></html>
`))

type exportView struct {
	SiteName  string
	Label     string
	Generated time.Time
	Report    *Report
	Sales     []models.Sale
	loc       *time.Location
}

func (v exportView) Local(t time.Time) time.Time { return t.In(v.loc) }

// RenderHTML writes the printable report. The caller sets the
// X-Report-Period header from r.Label().
func (a *Aggregator) RenderHTML(w io.Writer, r *Report, siteName string) error {
	if siteName == "" {
		siteName = "Reda Store"
	}
	return exportTemplate.Execute(w, exportView{
		SiteName:  siteName,
		Label:     r.Label(),
		Generated: a.now().In(a.loc),
		Report:    r,
		Sales:     r.Sales(),
		loc:       a.loc,
	})
}

// FormatRs renders an amount as rupees with two decimals and thousands
// separators, e.g. Rs. 12,345.50.
func FormatRs(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	s := d.StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-2:]

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return "Rs. " + sign + b.String() + "." + frac
}
