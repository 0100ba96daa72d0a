// Package metrics defines the Prometheus instruments shared by the
// exchange and trading-client processes and the promhttp handler that
// serves them on each process's admin surface.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the instruments one process needs. Both cmd/exchange
// and cmd/tradeclient construct one at startup and inject it wherever a
// component needs to record an observation.
type Registry struct {
	reg *prometheus.Registry

	OrdersProcessed  *prometheus.CounterVec
	TradesExecuted   *prometheus.CounterVec
	Rejections       *prometheus.CounterVec
	QueueOccupancy   *prometheus.GaugeVec
	PoolLive         *prometheus.GaugeVec
	PublisherSeqNum  prometheus.Gauge
	MatchingLatency  prometheus.Histogram
	SessionsActive   prometheus.Gauge
}

// New constructs and registers the full instrument set.
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		OrdersProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradsys_orders_processed_total",
			Help: "Client requests processed by the matching engine, by ticker and request type.",
		}, []string{"ticker", "request_type"}),
		TradesExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradsys_trades_executed_total",
			Help: "Trade events emitted by the matching engine, by ticker.",
		}, []string{"ticker"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradsys_rejections_total",
			Help: "Rejected requests, by reason code.",
		}, []string{"reason"}),
		QueueOccupancy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tradsys_queue_occupancy",
			Help: "Instantaneous SPSC queue occupancy, by queue name.",
		}, []string{"queue"}),
		PoolLive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tradsys_pool_live",
			Help: "Live (allocated) slots in an object pool, by pool name.",
		}, []string{"pool"}),
		PublisherSeqNum: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradsys_publisher_seq_num",
			Help: "Most recently published market-data sequence number.",
		}),
		MatchingLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradsys_matching_latency_seconds",
			Help:    "Time to process one ClientRequest to completion in the matching loop.",
			Buckets: prometheus.ExponentialBuckets(1e-7, 2, 20), // 100ns .. ~100ms
		}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradsys_sessions_active",
			Help: "Currently connected exchange sessions.",
		}),
	}

	reg.MustRegister(
		r.OrdersProcessed, r.TradesExecuted, r.Rejections,
		r.QueueOccupancy, r.PoolLive, r.PublisherSeqNum,
		r.MatchingLatency, r.SessionsActive,
	)
	return r
}

// Handler returns the HTTP handler to mount at /metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
