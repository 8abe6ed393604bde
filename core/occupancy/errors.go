package occupancy

import (
	"errors"
	"fmt"
	"time"
)

// ErrCapacityExceeded is matched by errors.Is when a terminal hour slot is
// saturated.
var ErrCapacityExceeded = errors.New("terminal capacity exceeded")

// CapacityError names the saturated terminal and slot.
type CapacityError struct {
	TerminalID string
	Date       time.Time
	HourSlot   int
	Assigned   int
	Capacity   int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("terminal %s %s %02d:00: %d of %d slots taken",
		e.TerminalID, e.Date.Format("2006-01-02"), e.HourSlot, e.Assigned, e.Capacity)
}

func (e *CapacityError) Unwrap() error { return ErrCapacityExceeded }
