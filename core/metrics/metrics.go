package metrics

import (
	"time"

	"github.com/flotacoop/fleetcore/core/model"
)

// AssignmentResult represents one committed assignment to be recorded.
type AssignmentResult struct {
	TripID          string
	CooperativaID   string
	DriverID        string
	BusID           string
	TerminalOrigin  string
	TerminalDestino string
	Class           model.TripClass
	DurationMin     int
	DistanceKm      float64
	Exceptional     bool
	CommittedAt     time.Time
}

// MetricsSink records committed assignments for observability purposes.
type MetricsSink interface {
	RecordAssignmentResult(results []AssignmentResult) error
}

// RejectionEvent captures a refused proposal and its first violated constraint.
type RejectionEvent struct {
	CooperativaID string
	Reason        string
	TerminalID    string
	Time          time.Time
}

// RejectionRecorder is implemented by sinks able to record rejections.
type RejectionRecorder interface {
	RecordRejection(ev RejectionEvent) error
}

// CommitLatency is the wall time of one validate-and-commit sequence,
// including retries.
type CommitLatency struct {
	CooperativaID string
	Class         model.TripClass
	Attempts      int
	Latency       time.Duration
}

// LatencyRecorder is implemented by sinks able to record commit latency.
type LatencyRecorder interface {
	RecordCommitLatency(lat CommitLatency) error
}

// CancellationRecorder is implemented by sinks able to record cancellations.
type CancellationRecorder interface {
	RecordCancellation(coopID, tripID string) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordAssignmentResult([]AssignmentResult) error { return nil }
func (NopSink) RecordRejection(RejectionEvent) error            { return nil }
func (NopSink) RecordCommitLatency(CommitLatency) error         { return nil }
func (NopSink) RecordCancellation(string, string) error         { return nil }
