package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutMetrics_ObserveCheckout(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)

	m.ObserveCheckout(OutcomeCommitted, 20*time.Millisecond)
	m.ObserveCheckout(OutcomeCommitted, 30*time.Millisecond)
	m.ObserveCheckout(OutcomeInsufficientStock, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues(OutcomeCommitted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(OutcomeInsufficientStock)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.requests.WithLabelValues(OutcomeError)))

	count, err := testutil.GatherAndCount(reg, "checkout_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCheckoutMetrics_ObserveAllocation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)

	m.ObserveAllocation(12, 2)
	m.ObserveAllocation(3, 1)

	assert.Equal(t, 15.0, testutil.ToFloat64(m.unitsAllocated))

	count, err := testutil.GatherAndCount(reg, "checkout_batches_touched")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCheckoutMetrics_NilIsNoop(t *testing.T) {
	var m *CheckoutMetrics

	assert.NotPanics(t, func() {
		m.ObserveCheckout(OutcomeCommitted, time.Second)
		m.ObserveAllocation(1, 1)
	})
}
