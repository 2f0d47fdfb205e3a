package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	salesCommitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reda",
		Subsystem: "pos",
		Name:      "sales_committed_total",
		Help:      "Committed sale records by type (SALE or RETURN).",
	}, []string{"type"})

	salesAmount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reda",
		Subsystem: "pos",
		Name:      "sales_amount_total",
		Help:      "Sum of sale totals by type.",
	}, []string{"type"})

	itemsMoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reda",
		Subsystem: "pos",
		Name:      "stock_units_moved_total",
		Help:      "Stock units taken out by sales or put back by returns.",
	}, []string{"type"})

	saleFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reda",
		Subsystem: "pos",
		Name:      "sale_failures_total",
		Help:      "Rejected sale and return attempts by error kind.",
	}, []string{"operation", "kind"})
)

func ObserveSale(saleType string, total float64, units int) {
	salesCommitted.WithLabelValues(saleType).Inc()
	salesAmount.WithLabelValues(saleType).Add(total)
	itemsMoved.WithLabelValues(saleType).Add(float64(units))
}

func ObserveFailure(operation, kind string) {
	saleFailures.WithLabelValues(operation, kind).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
