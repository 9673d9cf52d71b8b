// Package metrics exposes the server's Prometheus instrumentation:
//
//   - exchange_requests_total{path,code}  – HTTP requests by route and status
//   - exchange_orders_total{side,tif}     – orders accepted by the engine
//   - exchange_trades_total               – matched trade legs
//   - exchange_rate_limited_total         – requests rejected at admission
//
// All collectors are registered in init() and served by the HTTP handler at
// /metrics (Prometheus text exposition format).
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchange_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"path", "code"},
	)

	OrdersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchange_orders_total",
			Help: "Orders accepted by the matching engine",
		},
		[]string{"side", "tif"},
	)

	TradesExecuted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "exchange_trades_total",
			Help: "Matched trade legs recorded in the log",
		},
	)

	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "exchange_rate_limited_total",
			Help: "Requests rejected by per-IP admission control",
		},
	)
)

func init() {
	prometheus.MustRegister(RequestsTotal, OrdersSubmitted, TradesExecuted, RateLimited)
}
