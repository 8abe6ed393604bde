package model

import "time"

// DriverDayRecord accumulates the worked time of a driver on one calendar day.
// MinutesWorked only grows through the orchestrator commit path; cancellation
// is the single compensating writer.
type DriverDayRecord struct {
	DriverID         string
	CooperativaID    string
	Date             time.Time
	MinutesWorked    int
	IsExceptionalDay bool
	TripsCompleted   int
	DistanceKm       float64
}
