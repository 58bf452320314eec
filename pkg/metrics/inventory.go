package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by the stock movement counters.
const (
	OutcomeSuccess           = "success"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeNotFound          = "not_found"
	OutcomeRejected          = "rejected"
	OutcomeError             = "error"

	DirectionOut = "out"
	DirectionIn  = "in"
)

// InventoryMetrics records stock movements and store latency.
type InventoryMetrics struct {
	purchases  *prometheus.CounterVec
	restocks   *prometheus.CounterVec
	unitsMoved *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewInventoryMetrics registers the inventory metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	purchases := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_purchases_total",
		Help: "Purchase attempts by outcome.",
	}, []string{"outcome"})
	restocks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_restocks_total",
		Help: "Restock attempts by outcome.",
	}, []string{"outcome"})
	unitsMoved := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_units_moved_total",
		Help: "Units that left (out) or entered (in) stock.",
	}, []string{"direction"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inventory_operation_duration_seconds",
		Help:    "Duration of inventory operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(purchases, restocks, unitsMoved, duration)
	return &InventoryMetrics{
		purchases:  purchases,
		restocks:   restocks,
		unitsMoved: unitsMoved,
		duration:   duration,
	}
}

// ObservePurchase counts a purchase attempt and, on success, the units sold.
func (m *InventoryMetrics) ObservePurchase(outcome string, units int) {
	if m == nil || m.purchases == nil {
		return
	}
	m.purchases.WithLabelValues(normalizeLabel(outcome)).Inc()
	if outcome == OutcomeSuccess && units > 0 {
		m.unitsMoved.WithLabelValues(DirectionOut).Add(float64(units))
	}
}

// ObserveRestock counts a restock attempt and, on success, the units added.
func (m *InventoryMetrics) ObserveRestock(outcome string, units int) {
	if m == nil || m.restocks == nil {
		return
	}
	m.restocks.WithLabelValues(normalizeLabel(outcome)).Inc()
	if outcome == OutcomeSuccess && units > 0 {
		m.unitsMoved.WithLabelValues(DirectionIn).Add(float64(units))
	}
}

// ObserveDuration records how long the named operation took.
func (m *InventoryMetrics) ObserveDuration(operation string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
