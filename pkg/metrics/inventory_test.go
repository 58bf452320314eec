package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestInventoryMetricsCountsMovements(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewInventoryMetrics(reg)

	m.ObservePurchase(OutcomeSuccess, 3)
	m.ObservePurchase(OutcomeInsufficientStock, 3)
	m.ObserveRestock(OutcomeSuccess, 10)
	m.ObserveRestock("", 0)
	m.ObserveDuration("purchase", 20*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	cases := []struct {
		name, label, value string
		want               float64
	}{
		{"inventory_purchases_total", "outcome", OutcomeSuccess, 1},
		{"inventory_purchases_total", "outcome", OutcomeInsufficientStock, 1},
		{"inventory_restocks_total", "outcome", OutcomeSuccess, 1},
		{"inventory_restocks_total", "outcome", "unknown", 1},
		{"inventory_units_moved_total", "direction", DirectionOut, 3},
		{"inventory_units_moved_total", "direction", DirectionIn, 10},
	}
	for _, tc := range cases {
		got, err := fetchCounterValue(mfs, tc.name, tc.label, tc.value)
		if err != nil {
			t.Fatalf("fetch %s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s{%s=%q}: expected %v, got %v", tc.name, tc.label, tc.value, tc.want, got)
		}
	}

	if got, err := fetchHistogramSum(mfs, "inventory_operation_duration_seconds", "operation", "purchase"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	m := NewInventoryMetrics(nil)
	m.ObservePurchase(OutcomeSuccess, 1)
	m.ObserveRestock(OutcomeSuccess, 1)
	m.ObserveDuration("list", time.Millisecond)

	var nilMetrics *InventoryMetrics
	nilMetrics.ObservePurchase(OutcomeSuccess, 1)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
