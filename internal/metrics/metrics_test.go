package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveSale(t *testing.T) {
	before := testutil.ToFloat64(salesCommitted.WithLabelValues("SALE"))
	ObserveSale("SALE", 300, 3)

	assert.Equal(t, before+1, testutil.ToFloat64(salesCommitted.WithLabelValues("SALE")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(salesAmount.WithLabelValues("SALE")), 300.0)
}

func TestHandlerExposesCounters(t *testing.T) {
	ObserveFailure("create_sale", "insufficient_stock")

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `reda_pos_sale_failures_total{kind="insufficient_stock",operation="create_sale"}`)
}
