package metrics

import coremetrics "github.com/flotacoop/fleetcore/core/metrics"

// MultiSink fans assignment records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordAssignmentResult forwards the records to all sinks, returning the
// first error encountered.
func (m *MultiSink) RecordAssignmentResult(res []coremetrics.AssignmentResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordAssignmentResult(res); err != nil {
			return err
		}
	}
	return nil
}

// RecordRejection forwards rejection events.
func (m *MultiSink) RecordRejection(ev coremetrics.RejectionEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.RejectionRecorder); ok {
			if err := rec.RecordRejection(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordCommitLatency forwards latency metrics when supported by the sink.
func (m *MultiSink) RecordCommitLatency(lat coremetrics.CommitLatency) error {
	for _, s := range m.Sinks {
		if lr, ok := s.(coremetrics.LatencyRecorder); ok {
			if err := lr.RecordCommitLatency(lat); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordCancellation forwards cancellation events when supported by the sink.
func (m *MultiSink) RecordCancellation(coopID, tripID string) error {
	for _, s := range m.Sinks {
		if cr, ok := s.(coremetrics.CancellationRecorder); ok {
			if err := cr.RecordCancellation(coopID, tripID); err != nil {
				return err
			}
		}
	}
	return nil
}
