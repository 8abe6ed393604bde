package metrics

import (
	"context"
	"time"

	"github.com/flotacoop/fleetcore/core/events"
	coremetrics "github.com/flotacoop/fleetcore/core/metrics"
	"github.com/flotacoop/fleetcore/core/schedule"
	"github.com/flotacoop/fleetcore/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// assignment lifecycle events. It stops when the context is canceled.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				switch e := ev.(type) {
				case events.AssignmentRejected:
					if r, ok := sink.(coremetrics.RejectionRecorder); ok {
						_ = r.RecordRejection(coremetrics.RejectionEvent{
							CooperativaID: e.Proposal.CooperativaID,
							Reason:        schedule.RejectionReason(e.Err),
							TerminalID:    e.Proposal.TerminalOrigin,
							Time:          time.Now(),
						})
					}
				case events.AssignmentCancelled:
					if r, ok := sink.(coremetrics.CancellationRecorder); ok {
						_ = r.RecordCancellation(e.CooperativaID, e.TripID)
					}
				}
			}
		}
	}()
}
