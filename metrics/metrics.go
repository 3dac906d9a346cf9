// Package metrics exposes table request metrics to Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Alp4ka/gotable"
)

// Collector records every request handled by a gotable.Dispatcher.
type Collector struct {
	// RequestTotal counts requests by instance, kind and status.
	RequestTotal *prometheus.CounterVec
	// RequestDuration is the latency of requests by instance and kind.
	RequestDuration *prometheus.HistogramVec
}

var _ gotable.Observer = (*Collector)(nil)

// NewCollector registers the collector metrics with reg, the default
// registerer when nil.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		RequestTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gotable_requests_total",
				Help: "Total number of table requests",
			},
			[]string{"instance", "kind", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gotable_request_duration_seconds",
				Help:    "Table request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"instance", "kind"},
		),
	}
}

func (c *Collector) ObserveRequest(instance, kind string, status int, elapsed time.Duration) {
	if instance == "" {
		instance = "unknown"
	}

	c.RequestTotal.WithLabelValues(instance, kind, strconv.Itoa(status)).Inc()
	c.RequestDuration.WithLabelValues(instance, kind).Observe(elapsed.Seconds())
}
