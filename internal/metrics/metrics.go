// Package metrics exposes the storefront's Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements the cart, guard and api recorders.
type Collector struct {
	cartMutations  *prometheus.CounterVec
	guardDecisions *prometheus.CounterVec
	apiRequests    *prometheus.CounterVec
	apiLatency     *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		cartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Committed cart mutations by operation",
		}, []string{"op"}),
		guardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_guard_decisions_total",
			Help: "Route guard decisions by outcome",
		}, []string{"outcome"}),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_api_requests_total",
			Help: "Outbound API requests by service and status code",
		}, []string{"service", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_api_request_duration_seconds",
			Help:    "Outbound API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"service"}),
	}

	reg.MustRegister(
		c.cartMutations,
		c.guardDecisions,
		c.apiRequests,
		c.apiLatency,
	)

	return c
}

func (c *Collector) RecordCartMutation(op string) {
	c.cartMutations.WithLabelValues(op).Inc()
}

func (c *Collector) RecordGuardDecision(outcome string) {
	c.guardDecisions.WithLabelValues(outcome).Inc()
}

// RecordAPIRequest counts one outbound call. A status of 0 means no
// response was received.
func (c *Collector) RecordAPIRequest(service string, status int, d time.Duration) {
	c.apiRequests.WithLabelValues(service, strconv.Itoa(status)).Inc()
	c.apiLatency.WithLabelValues(service).Observe(d.Seconds())
}

// Handler returns the HTTP handler Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
