// Package metrics はPrometheus形式のメトリクス収集と /metrics エンドポイントを提供します。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace は全メトリクス名の接頭辞です。
const Namespace = "stock_trader"

// Metrics は取引・価格キャッシュ・HTTPのメトリクスを保持します。
// ledger の TradeObserver と quotes の RefreshObserver を実装します。
type Metrics struct {
	registry *prometheus.Registry

	trades          *prometheus.CounterVec
	refreshes       *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	universeSize    prometheus.Gauge
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New は専用のレジストリにコレクタを登録したMetricsを生成します。
// degraded は縮退状態を返す関数で、nil の場合は登録しません。
func New(degraded func() bool) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		trades: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "trades_total",
			Help:      "Settled and rejected trades by type and result.",
		}, []string{"type", "result"}),
		refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "quote_refresh_total",
			Help:      "Quote universe refresh runs by outcome.",
		}, []string{"outcome"}),
		refreshDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "quote_refresh_duration_seconds",
			Help:      "Duration of quote universe refresh runs.",
			Buckets:   []float64{.5, 1, 2.5, 5, 10, 20, 30, 60},
		}),
		universeSize: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "quote_universe_size",
			Help:      "Number of quotes in the cached universe.",
		}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
	}

	if degraded != nil {
		f.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "ledger_degraded",
			Help:      "1 once the ledger has switched to the in-memory fallback.",
		}, func() float64 {
			if degraded() {
				return 1
			}
			return 0
		})
	}
	return m
}

// ObserveTrade は取引の結果を記録します。
func (m *Metrics) ObserveTrade(tradeType, result string) {
	m.trades.WithLabelValues(tradeType, result).Inc()
}

// ObserveRefresh は価格キャッシュ更新の結果を記録します。
func (m *Metrics) ObserveRefresh(outcome string, elapsed time.Duration, size int) {
	m.refreshes.WithLabelValues(outcome).Inc()
	m.refreshDuration.Observe(elapsed.Seconds())
	m.universeSize.Set(float64(size))
}

// Middleware はHTTPリクエスト数とレイテンシを記録するGinミドルウェアです。
// ルートが見つからない場合は "unmatched" として集計します。
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.requests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler は /metrics 用のHTTPハンドラーを返します。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry はテストや追加コレクタ登録のためにレジストリを返します。
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
