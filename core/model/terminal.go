package model

import "time"

// TerminalCapacity describes the physical throughput of a terminal.
type TerminalCapacity struct {
	Platforms             int
	ThroughputPerPlatform int
}

// PerHour returns the number of departures or arrivals the terminal can anchor
// in one hour slot.
func (c TerminalCapacity) PerHour() int {
	return c.Platforms * c.ThroughputPerPlatform
}

// TerminalOccupancyCell counts the trips anchored at a terminal for one hour
// slot of one day.
type TerminalOccupancyCell struct {
	TerminalID string
	Date       time.Time
	HourSlot   int
	Assigned   int
}
