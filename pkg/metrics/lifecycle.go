package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LifecycleMetrics records order lifecycle activity.
type LifecycleMetrics struct {
	transitions *prometheus.CounterVec
	renders     *prometheus.CounterVec
	checkout    prometheus.Histogram
}

// NewLifecycleMetrics registers the order lifecycle metrics on the provided registerer.
func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	if reg == nil {
		return &LifecycleMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order status transitions applied, labeled by resulting status.",
	}, []string{"status"})
	renders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "delivery_note_renders_total",
		Help: "Delivery note render attempts, labeled by outcome.",
	}, []string{"outcome"})
	checkout := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(transitions, renders, checkout)
	return &LifecycleMetrics{
		transitions: transitions,
		renders:     renders,
		checkout:    checkout,
	}
}

// IncTransition increments the transition counter for the resulting status.
func (m *LifecycleMetrics) IncTransition(status string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncRender increments the render counter for the given outcome.
func (m *LifecycleMetrics) IncRender(outcome string) {
	if m == nil || m.renders == nil {
		return
	}
	m.renders.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveCheckout records a checkout transaction duration.
func (m *LifecycleMetrics) ObserveCheckout(duration time.Duration) {
	if m == nil || m.checkout == nil {
		return
	}
	m.checkout.Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
