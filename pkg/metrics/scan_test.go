package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestScanPipelineMetricsRegistersAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewScanPipelineMetrics(reg)

	m.ObserveScan("found")
	m.ObserveScan("found")
	m.ObserveScan("suppressed")
	m.ObserveLookup("openfoodfacts", "miss")
	m.ObserveCheckout("completed", 120*time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	byName := map[string]*dto.MetricFamily{}
	for _, fam := range families {
		byName[fam.GetName()] = fam
	}

	scans, ok := byName["scan_attempts_total"]
	if !ok {
		t.Fatal("scan_attempts_total not registered")
	}
	var found float64
	for _, metric := range scans.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == "outcome" && label.GetValue() == "found" {
				found = metric.GetCounter().GetValue()
			}
		}
	}
	if found != 2 {
		t.Fatalf("expected 2 found scans, got %v", found)
	}

	if _, ok := byName["checkout_duration_seconds"]; !ok {
		t.Fatal("checkout_duration_seconds not registered")
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	m := NewScanPipelineMetrics(nil)
	m.ObserveScan("found")
	m.ObserveLookup("upcitemdb", "hit")
	m.ObserveCheckout("failed", time.Second)
}
