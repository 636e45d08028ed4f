package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveTrade(t *testing.T) {
	m := New(nil)

	m.ObserveTrade("buy", "ok")
	m.ObserveTrade("buy", "ok")
	m.ObserveTrade("sell", "rejected")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.trades.WithLabelValues("buy", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.trades.WithLabelValues("sell", "rejected")))
}

func TestMetrics_ObserveRefresh(t *testing.T) {
	m := New(nil)

	m.ObserveRefresh("complete", 3*time.Second, 5000)
	m.ObserveRefresh("fallback", time.Second, 30)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshes.WithLabelValues("complete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshes.WithLabelValues("fallback")))
	assert.Equal(t, 30.0, testutil.ToFloat64(m.universeSize))
	assert.Equal(t, 1, testutil.CollectAndCount(m.refreshDuration))
}

func TestMetrics_DegradedGauge(t *testing.T) {
	var degraded atomic.Bool
	m := New(degraded.Load)

	expected := `
# HELP stock_trader_ledger_degraded 1 once the ledger has switched to the in-memory fallback.
# TYPE stock_trader_ledger_degraded gauge
stock_trader_ledger_degraded %d
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(),
		strings.NewReader(strings.Replace(expected, "%d", "0", 1)), "stock_trader_ledger_degraded"))

	degraded.Store(true)
	require.NoError(t, testutil.GatherAndCompare(m.Registry(),
		strings.NewReader(strings.Replace(expected, "%d", "1", 1)), "stock_trader_ledger_degraded"))
}

func TestMetrics_MiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New(nil)
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/quotes/:code", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for _, path := range []string{"/quotes/600000", "/quotes/000001", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/quotes/:code", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `stock_trader_http_requests_total{method="GET",route="/quotes/:code",status="200"} 2`)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
