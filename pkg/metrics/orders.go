package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout outcomes recorded by OrderMetrics.
const (
	CheckoutSucceeded = "succeeded"
	CheckoutRejected  = "rejected"
	CheckoutFailed    = "failed"
)

// OrderMetrics tracks checkout attempts, status transitions and stock compensations.
type OrderMetrics struct {
	checkouts     *prometheus.CounterVec
	duration      prometheus.Histogram
	transitions   *prometheus.CounterVec
	compensations prometheus.Counter
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "commerce_checkout_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "commerce_checkout_duration_seconds",
		Help:    "Duration of checkout transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "commerce_order_transitions_total",
		Help: "Committed order status transitions.",
	}, []string{"from", "to"})
	compensations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "commerce_checkout_compensations_total",
		Help: "Reservations released by failed checkouts.",
	})
	reg.MustRegister(checkouts, duration, transitions, compensations)
	return &OrderMetrics{
		checkouts:     checkouts,
		duration:      duration,
		transitions:   transitions,
		compensations: compensations,
	}
}

// ObserveCheckout records one checkout attempt.
func (m *OrderMetrics) ObserveCheckout(outcome string, elapsed time.Duration) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(outcome)).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// IncTransition counts a committed transition.
func (m *OrderMetrics) IncTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// AddCompensations counts reservations released on a failed checkout.
func (m *OrderMetrics) AddCompensations(n int) {
	if m == nil || m.compensations == nil || n <= 0 {
		return
	}
	m.compensations.Add(float64(n))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
