package model

import "time"

// TripClass classifies a trip by distance, driving which rest rule applies.
type TripClass int

const (
	Intraprovincial TripClass = iota
	Interprovincial
)

// String returns a human-readable representation of the trip class.
func (c TripClass) String() string {
	switch c {
	case Intraprovincial:
		return "intraprovincial"
	case Interprovincial:
		return "interprovincial"
	default:
		return "unknown"
	}
}

// ClassifyTrip resolves the trip class from the route distance. Distances at
// or beyond the threshold are interprovincial.
func ClassifyTrip(distanceKm, thresholdKm float64) TripClass {
	if distanceKm >= thresholdKm {
		return Interprovincial
	}
	return Intraprovincial
}

// Proposal is a candidate assignment of a driver and bus to a trip.
// BusID may be empty, in which case the orchestrator resolves a bus from the
// rotation cycle or from terminal availability.
type Proposal struct {
	CooperativaID    string
	DriverID         string
	BusID            string
	RouteRef         string
	TerminalOrigin   string
	TerminalDestino  string
	Date             time.Time
	Departure        time.Time
	EstimatedArrival time.Time
	DistanceKm       float64
	// Order is the departure order within the rotation cycle day. Zero means
	// unknown; the cycle is then matched by origin terminal and departure time.
	Order int
}

// Duration returns the estimated trip duration.
func (p Proposal) Duration() time.Duration {
	return p.EstimatedArrival.Sub(p.Departure)
}

// Assignment is a committed trip assignment. It references the resources it
// holds so cancellation can release them in reverse order.
type Assignment struct {
	TripID           string
	CooperativaID    string
	DriverID         string
	BusID            string
	SlotID           string
	NextSlotID       string
	TerminalOrigin   string
	TerminalDestino  string
	Date             time.Time
	Departure        time.Time
	EstimatedArrival time.Time
	DurationMin      int
	Class            TripClass
	DistanceKm       float64
	// RestUntil is when the bus becomes available again at the destination.
	RestUntil time.Time
	// DriverExceptional reports whether the driver day is flagged exceptional
	// after this assignment.
	DriverExceptional bool
	CommittedAt       time.Time
}

// DateOf normalizes t to its calendar day at midnight UTC. All ledgers key
// their records by this value.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// HourSlotOf returns the occupancy hour slot (0-23) a timestamp anchors to.
func HourSlotOf(t time.Time) int {
	return t.Hour()
}

// WeekStart returns the Monday of the week containing date, at midnight UTC.
func WeekStart(date time.Time) time.Time {
	d := DateOf(date)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}
