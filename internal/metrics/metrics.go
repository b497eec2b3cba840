// Package metrics exposes Prometheus collectors for the checkout engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout outcomes used as the "outcome" label.
const (
	OutcomeCommitted         = "committed"
	OutcomeValidationFailed  = "validation_failed"
	OutcomeDuplicate         = "duplicate"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeAllocationRace    = "allocation_race"
	OutcomeError             = "error"
)

// CheckoutMetrics groups the checkout collectors. A nil *CheckoutMetrics
// records nothing.
type CheckoutMetrics struct {
	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	unitsAllocated prometheus.Counter
	batchesTouched prometheus.Histogram
}

// NewCheckoutMetrics creates the collectors and registers them with reg.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	m := &CheckoutMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "checkout",
			Name:      "requests_total",
			Help:      "Checkout attempts by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "checkout",
			Name:      "duration_seconds",
			Help:      "Checkout latency by outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		unitsAllocated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "checkout",
			Name:      "units_allocated_total",
			Help:      "Stock units deducted from batches.",
		}),
		batchesTouched: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "checkout",
			Name:      "batches_touched",
			Help:      "Stock batches decremented per product allocation.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13},
		}),
	}

	reg.MustRegister(m.requests, m.duration, m.unitsAllocated, m.batchesTouched)

	return m
}

// ObserveCheckout records one finished checkout attempt.
func (m *CheckoutMetrics) ObserveCheckout(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveAllocation records one product allocation.
func (m *CheckoutMetrics) ObserveAllocation(units, batches int) {
	if m == nil {
		return
	}
	m.unitsAllocated.Add(float64(units))
	m.batchesTouched.Observe(float64(batches))
}
