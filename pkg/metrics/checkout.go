package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout outcome labels.
const (
	OutcomeSuccess    = "success"
	OutcomeEmptyCart  = "empty_cart"
	OutcomeExhausted  = "order_number_exhausted"
	OutcomeValidation = "validation"
	OutcomeError      = "error"
)

// CheckoutMetrics records checkout attempts and order number allocation.
type CheckoutMetrics struct {
	duration   *prometheus.HistogramVec
	outcomes   *prometheus.CounterVec
	collisions prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout executions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_total",
		Help: "Checkout executions partitioned by outcome.",
	}, []string{"outcome"})
	collisions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_order_number_collisions_total",
		Help: "Order number unique violations that triggered a retry.",
	})
	reg.MustRegister(duration, outcomes, collisions)
	return &CheckoutMetrics{
		duration:   duration,
		outcomes:   outcomes,
		collisions: collisions,
	}
}

// Observe records one finished checkout.
func (c *CheckoutMetrics) Observe(outcome string, duration time.Duration) {
	if c == nil || c.outcomes == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	c.outcomes.WithLabelValues(outcome).Inc()
	c.duration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// IncCollision counts an order number collision.
func (c *CheckoutMetrics) IncCollision() {
	if c == nil || c.collisions == nil {
		return
	}
	c.collisions.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
