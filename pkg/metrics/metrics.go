// Package metrics 提供 Prometheus helper，包含 HTTP 与商城业务指标
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标集合
type Metrics struct {
	registry *prometheus.Registry

	// HTTP 请求计数（按方法、路径、状态码）
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// 结算结果计数（placed / empty_cart / no_fulfillable / error）
	CheckoutTotal *prometheus.CounterVec
	// 结算中被丢弃的购物车行数
	CheckoutLinesDropped prometheus.Counter
	// 库存扣减竞争失败次数
	StockRaceTotal prometheus.Counter
	// 订单金额分布
	OrderAmount prometheus.Histogram

	// 推荐请求计数（按冷启动与否）
	RecommendationsTotal *prometheus.CounterVec
}

// New 创建指标实例并注册到独立 registry
func New(serviceName string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sanset",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sanset",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		CheckoutTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sanset",
			Subsystem: serviceName,
			Name:      "checkout_total",
			Help:      "Checkout attempts by outcome",
		}, []string{"outcome"}),
		CheckoutLinesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sanset",
			Subsystem: serviceName,
			Name:      "checkout_lines_dropped_total",
			Help:      "Cart lines dropped as unfulfillable during checkout",
		}),
		StockRaceTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sanset",
			Subsystem: serviceName,
			Name:      "stock_race_total",
			Help:      "Stock decrements lost to a concurrent checkout",
		}),
		OrderAmount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sanset",
			Subsystem: serviceName,
			Name:      "order_amount",
			Help:      "Placed order total amounts",
			Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000},
		}),
		RecommendationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sanset",
			Subsystem: serviceName,
			Name:      "recommendations_total",
			Help:      "Recommendation requests by path",
		}, []string{"cold_start"}),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CheckoutTotal,
		m.CheckoutLinesDropped,
		m.StockRaceTotal,
		m.OrderAmount,
		m.RecommendationsTotal,
	)

	return m
}

// Handler 返回 /metrics 的 HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
