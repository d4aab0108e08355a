// Package metrics defines the Prometheus instrumentation for dataset
// retrievals.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the collectors on a private registry so tests can run
// in parallel without duplicate-registration panics.
type Metrics struct {
	Registry *prometheus.Registry

	BytesDownloaded prometheus.Counter
	RangesCompleted prometheus.Counter
	RangesSkipped   prometheus.Counter
	RangesFailed    prometheus.Counter
	OrdersInFlight  prometheus.Gauge
	RequestsTotal   *prometheus.CounterVec
}

// New creates and registers the collector set.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		BytesDownloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smactl_download_bytes_total",
			Help: "Total bytes streamed from the HDA service.",
		}),
		RangesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smactl_ranges_completed_total",
			Help: "Date ranges fully downloaded.",
		}),
		RangesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smactl_ranges_skipped_total",
			Help: "Date ranges skipped because their part file already existed.",
		}),
		RangesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smactl_ranges_failed_total",
			Help: "Date ranges that failed to download.",
		}),
		OrdersInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "smactl_orders_in_flight",
			Help: "Product orders currently being fetched.",
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smactl_requests_total",
			Help: "HDA requests by outcome.",
		}, []string{"outcome"}),
	}

	m.Registry.MustRegister(
		m.BytesDownloaded,
		m.RangesCompleted,
		m.RangesSkipped,
		m.RangesFailed,
		m.OrdersInFlight,
		m.RequestsTotal,
	)
	return m
}
