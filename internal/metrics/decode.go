// Package metrics exposes Prometheus instrumentation for decoding and for
// the HTTP binding.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/52North/SOS-sub005/internal/decode"
)

// Namespace prefixes every metric name.
const Namespace = "sosdecode"

// OutcomeOK labels successful decodes; failures are labelled with their
// error kind.
const OutcomeOK = "ok"

// DecodeMetrics is a decode.Observer recording one sample per dispatched
// node.
type DecodeMetrics struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ decode.Observer = (*DecodeMetrics)(nil)

// NewDecodeMetrics creates decode metrics and registers them with reg.
func NewDecodeMetrics(reg prometheus.Registerer) (*DecodeMetrics, error) {
	m := &DecodeMetrics{
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "decode_total",
				Help:      "Total number of dispatched decodes by element and outcome",
			},
			[]string{"namespace", "element", "shape", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "decode_duration_seconds",
				Help:      "Decode duration in seconds, nested decodes included",
				Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
			},
			[]string{"namespace", "element", "shape"},
		),
	}
	for _, c := range []prometheus.Collector{m.total, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveDecode implements decode.Observer. Resolution misses carry a zero
// duration and are counted but not timed.
func (m *DecodeMetrics) ObserveDecode(k decode.Key, elapsed time.Duration, err error) {
	local := k.Local
	if local == "" {
		local = "*"
	}
	shape := k.Shape.String()

	outcome := OutcomeOK
	if err != nil {
		outcome = string(decode.KindNoApplicableCode)
		if kind, ok := decode.KindOf(err); ok {
			outcome = string(kind)
		}
	}
	m.total.WithLabelValues(k.Namespace, local, shape, outcome).Inc()
	if elapsed > 0 {
		m.duration.WithLabelValues(k.Namespace, local, shape).Observe(elapsed.Seconds())
	}
}
