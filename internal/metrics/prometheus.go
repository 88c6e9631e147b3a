package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/aerosim/internal/mission"
	"github.com/san-kum/aerosim/internal/segment"
)

const namespace = "aerosim"

// PrometheusObserver is a mission.Observer that records segment outcomes.
type PrometheusObserver struct {
	segments    *prometheus.CounterVec
	evaluations *prometheus.HistogramVec
	duration    *prometheus.HistogramVec
}

// NewPrometheusObserver registers the segment collectors with reg, or
// with the default registerer when reg is nil.
func NewPrometheusObserver(reg prometheus.Registerer) (*PrometheusObserver, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &PrometheusObserver{
		segments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_total",
			Help:      "Segments evaluated, by kind and outcome.",
		}, []string{"kind", "status"}),
		evaluations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solver_evaluations",
			Help:      "Residual evaluations per segment solve.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "segment_duration_seconds",
			Help:      "Wall time spent evaluating a segment.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	for _, c := range []prometheus.Collector{o.segments, o.evaluations, o.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *PrometheusObserver) OnSegmentStart(string, *segment.Segment) {}

func (o *PrometheusObserver) OnSegmentEnd(_ string, r mission.SegmentResult) {
	o.segments.WithLabelValues(r.Kind, r.Status()).Inc()
	if r.Skipped {
		return
	}
	o.evaluations.WithLabelValues(r.Kind).Observe(float64(r.Evaluations))
	o.duration.WithLabelValues(r.Kind).Observe(r.Duration.Seconds())
}

var _ mission.Observer = (*PrometheusObserver)(nil)
