package events

import (
	"time"

	"github.com/flotacoop/fleetcore/core/model"
)

// AssignmentCommitted is published after a proposal passed every constraint
// and all ledgers were updated.
type AssignmentCommitted struct {
	Assignment model.Assignment
	Attempts   int
	Time       time.Time
}

// AssignmentRejected is published when a proposal fails validation. Err is the
// typed rejection.
type AssignmentRejected struct {
	Proposal model.Proposal
	Err      error
	Time     time.Time
}

// AssignmentCancelled is published after a committed assignment was released.
// Repeated cancellations of the same trip publish only once.
type AssignmentCancelled struct {
	TripID        string
	CooperativaID string
	Time          time.Time
}
