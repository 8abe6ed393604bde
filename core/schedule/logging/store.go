package logging

import (
	"context"
	"time"

	"github.com/flotacoop/fleetcore/core/model"
)

// Action identifies what happened to a proposal.
type Action string

const (
	ActionCommit Action = "commit"
	ActionReject Action = "reject"
	ActionCancel Action = "cancel"
)

// LogRecord captures one assignment decision and its outcome.
type LogRecord struct {
	Timestamp     time.Time         `json:"timestamp"`
	Action        Action            `json:"action"`
	TripID        string            `json:"trip_id,omitempty"`
	CooperativaID string            `json:"cooperativa_id"`
	Reason        string            `json:"reason,omitempty"`
	Proposal      model.Proposal    `json:"proposal"`
	Assignment    *model.Assignment `json:"assignment,omitempty"`
}

// LogQuery defines filters for retrieving records.
type LogQuery struct {
	Start         time.Time
	End           time.Time
	TripID        string
	CooperativaID string
	Action        Action
}

// LogStore persists LogRecords and supports querying.
type LogStore interface {
	Append(ctx context.Context, rec LogRecord) error
	Query(ctx context.Context, q LogQuery) ([]LogRecord, error)
	Close() error
}

func (q LogQuery) matches(r LogRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.TripID != "" && r.TripID != q.TripID {
		return false
	}
	if q.CooperativaID != "" && r.CooperativaID != q.CooperativaID {
		return false
	}
	if q.Action != "" && r.Action != q.Action {
		return false
	}
	return true
}
