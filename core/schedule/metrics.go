package schedule

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	proposalsTotal    *prometheus.CounterVec
	commitRetries     prometheus.Counter
	activeAssignments prometheus.Gauge
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, prometheus.Counter, prometheus.Gauge) {
	proposals := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedule_proposals_total",
			Help: "Number of assignment proposals by outcome",
		},
		[]string{"outcome"},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "schedule_commit_retries_total",
			Help: "Number of full validate-and-commit retries after slot conflicts",
		},
	)
	active := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "schedule_active_assignments",
			Help: "Number of committed assignments not yet cancelled",
		},
	)
	return proposals, retries, active
}

func init() {
	proposalsTotal, commitRetries, activeAssignments = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers scheduling metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(proposalsTotal, commitRetries, activeAssignments)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	proposalsTotal, commitRetries, activeAssignments = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
