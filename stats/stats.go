// Package stats provides StatsSink implementations for nanokv's
// components: a no-op used by tests and a Prometheus-backed sink used by
// the operator-facing CLI tools.
package stats

import (
	"github.com/nanokv/nanokv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Noop discards every sample. It's the default in tests, where a nil
// nanokv.StatsSink would also work but Noop reads better at call sites
// that want to be explicit about not caring.
type Noop struct{}

var _ nanokv.StatsSink = Noop{}

func (Noop) UpdateMinMaxAvg(metric string, sample float64) {}

// Prometheus is a nanokv.StatsSink backed by a single labeled summary:
// each distinct metric name becomes a label value, and Prometheus's own
// summary quantiles/count/sum give min/max/avg-style visibility without
// this package needing to track running extrema itself.
type Prometheus struct {
	samples *prometheus.SummaryVec
}

var _ nanokv.StatsSink = (*Prometheus)(nil)

// NewPrometheus registers nanokv's metric family on registry and returns
// a sink that feeds it.
func NewPrometheus(registry prometheus.Registerer) *Prometheus {
	return &Prometheus{
		samples: promauto.With(registry).NewSummaryVec(
			prometheus.SummaryOpts{
				Name:       "nanokv_metric_samples",
				Help:       "Sample distribution per nanokv metric name.",
				Objectives: map[float64]float64{0: 0, 0.5: 0.05, 1: 0},
			},
			[]string{"metric"},
		),
	}
}

func (p *Prometheus) UpdateMinMaxAvg(metric string, sample float64) {
	p.samples.WithLabelValues(metric).Observe(sample)
}
