package stats

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestNoopDiscardsSamples(t *testing.T) {
	var s Noop
	s.UpdateMinMaxAvg("keylist_index_bytes", 42)
}

func TestPrometheusRecordsSamplesPerMetricName(t *testing.T) {
	registry := prometheus.NewRegistry()
	sink := NewPrometheus(registry)

	sink.UpdateMinMaxAvg("keylist_block_size_bytes", 32)
	sink.UpdateMinMaxAvg("keylist_block_size_bytes", 64)
	sink.UpdateMinMaxAvg("freelist_alloc_hit", 1)

	families, err := registry.Gather()
	require.NoError(t, err)

	var summary *dto.Metric
	for _, family := range families {
		if family.GetName() != "nanokv_metric_samples" {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "metric" && label.GetValue() == "keylist_block_size_bytes" {
					summary = m
				}
			}
		}
	}

	require.NotNil(t, summary)
	require.Equal(t, uint64(2), summary.GetSummary().GetSampleCount())
}
