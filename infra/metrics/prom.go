package metrics

import (
	"strconv"

	coremetrics "github.com/flotacoop/fleetcore/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records assignment events in Prometheus metrics.
type PromSink struct {
	assignments   *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	cancellations *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// NewPromSink registers scheduling metrics on the default Prometheus
// registerer. The Prometheus server should be started separately using
// cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assignments_committed_total",
		Help: "Total number of committed trip assignments",
	}, []string{"cooperativa", "trip_class", "exceptional"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assignments_rejected_total",
		Help: "Total number of rejected proposals by first violated constraint",
	}, []string{"cooperativa", "reason"})
	cancellations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assignments_cancelled_total",
		Help: "Total number of cancelled assignments",
	}, []string{"cooperativa"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "assignment_commit_latency_seconds",
		Help:    "Wall time of validate-and-commit including retries",
		Buckets: prometheus.DefBuckets,
	}, []string{"cooperativa", "trip_class"})

	for _, c := range []prometheus.Collector{assignments, rejections, cancellations, latency} {
		if err := reg.Register(c); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, err
			}
			switch existing := are.ExistingCollector.(type) {
			case *prometheus.CounterVec:
				switch c {
				case assignments:
					assignments = existing
				case rejections:
					rejections = existing
				case cancellations:
					cancellations = existing
				}
			case *prometheus.HistogramVec:
				latency = existing
			}
		}
	}

	return &PromSink{
		assignments:   assignments,
		rejections:    rejections,
		cancellations: cancellations,
		latency:       latency,
	}, nil
}

// RecordAssignmentResult increments the counter for each committed assignment.
func (s *PromSink) RecordAssignmentResult(res []coremetrics.AssignmentResult) error {
	for _, r := range res {
		s.assignments.WithLabelValues(r.CooperativaID, r.Class.String(), strconv.FormatBool(r.Exceptional)).Inc()
	}
	return nil
}

// RecordRejection increments the rejection counter for the violated constraint.
func (s *PromSink) RecordRejection(ev coremetrics.RejectionEvent) error {
	s.rejections.WithLabelValues(ev.CooperativaID, ev.Reason).Inc()
	return nil
}

// RecordCommitLatency observes the commit latency histogram.
func (s *PromSink) RecordCommitLatency(lat coremetrics.CommitLatency) error {
	s.latency.WithLabelValues(lat.CooperativaID, lat.Class.String()).Observe(lat.Latency.Seconds())
	return nil
}

// RecordCancellation increments the cancellation counter.
func (s *PromSink) RecordCancellation(coopID, tripID string) error {
	s.cancellations.WithLabelValues(coopID).Inc()
	return nil
}
