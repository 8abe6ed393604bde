package model

import "time"

// SlotState is the lifecycle state of a bus availability slot.
type SlotState int

const (
	SlotPendingArrival SlotState = iota
	SlotAvailable
	SlotReserved
	SlotResting
	SlotOutOfService
)

// String returns a human-readable representation of the slot state.
func (s SlotState) String() string {
	switch s {
	case SlotPendingArrival:
		return "pending_arrival"
	case SlotAvailable:
		return "available"
	case SlotReserved:
		return "reserved"
	case SlotResting:
		return "resting"
	case SlotOutOfService:
		return "out_of_service"
	default:
		return "unknown"
	}
}

// BusAvailabilitySlot tracks when a bus becomes idle at a terminal until it is
// reserved for a next departure. AvailableFrom is always the arrival time plus
// the rest minutes of the completed trip's class.
type BusAvailabilitySlot struct {
	ID            string
	BusID         string
	CooperativaID string
	TerminalID    string
	// Date is the calendar day the bus can serve departures, i.e. the day its
	// rest completes, not necessarily the day it arrived.
	Date          time.Time
	ArrivalTime   time.Time
	AvailableFrom time.Time
	// OriginTripID is the trip that brought the bus here, empty for seeded slots.
	OriginTripID string
	// NextTripID is set when the slot is reserved; a slot with NextTripID set
	// cannot be matched again.
	NextTripID string
	State      SlotState
}

// Matchable reports whether the slot can serve a departure at or after t.
func (s BusAvailabilitySlot) Matchable(t time.Time) bool {
	return s.State == SlotAvailable && !s.AvailableFrom.After(t)
}
