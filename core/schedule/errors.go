package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/flotacoop/fleetcore/core/availability"
	"github.com/flotacoop/fleetcore/core/hours"
	"github.com/flotacoop/fleetcore/core/model"
	"github.com/flotacoop/fleetcore/core/occupancy"
)

// ErrNoBusAvailable is matched by errors.Is when no bus can serve the
// proposed departure.
var ErrNoBusAvailable = errors.New("no bus available")

// ErrOutsideOperatingWindow is matched by errors.Is when the departure falls
// outside the cooperative's operating hours.
var ErrOutsideOperatingWindow = errors.New("departure outside operating window")

// NoBusError reports why no bus candidate was found, with the next known
// availability as advisory data.
type NoBusError struct {
	CooperativaID string
	TerminalID    string
	Departure     time.Time
	NextAvailable time.Time
	HasNext       bool
}

func (e *NoBusError) Error() string {
	if e.HasNext {
		return fmt.Sprintf("no bus available at %s for %s departure, next rest completes %s",
			e.TerminalID, e.Departure.Format("15:04"), e.NextAvailable.Format("15:04"))
	}
	return fmt.Sprintf("no bus available at %s for %s departure", e.TerminalID, e.Departure.Format("15:04"))
}

func (e *NoBusError) Unwrap() error { return ErrNoBusAvailable }

// WindowError reports a departure outside the operating window.
type WindowError struct {
	Hour      int
	StartHour int
	EndHour   int
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("departure at %02d:00 outside operating window %02d:00-%02d:00", e.Hour, e.StartHour, e.EndHour)
}

func (e *WindowError) Unwrap() error { return ErrOutsideOperatingWindow }

// Advice gives a rejected caller something to retry with.
type Advice struct {
	NextBusAvailable     time.Time
	HasNextBus           bool
	DriverNormalMin      int
	DriverExceptionalMin int
	LowOccupancy         []model.TerminalOccupancyCell
}

// Rejection wraps the first violated constraint together with advisory data.
// It unwraps to the typed cause, so errors.Is against the sentinel of the
// violated constraint keeps working.
type Rejection struct {
	Err    error
	Advice Advice
}

func (r *Rejection) Error() string { return r.Err.Error() }

func (r *Rejection) Unwrap() error { return r.Err }

// IsRejection reports whether err is a business rejection rather than an
// infrastructure failure.
func IsRejection(err error) bool {
	for _, sentinel := range []error{
		ErrNoBusAvailable,
		ErrOutsideOperatingWindow,
		hours.ErrDriverHourExceeded,
		hours.ErrWeeklyExceptionalQuota,
		occupancy.ErrCapacityExceeded,
		availability.ErrSlotNotAvailable,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// RejectionReason returns the stable label of the violated constraint, used
// as a metrics dimension and in audit records.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrNoBusAvailable):
		return "no_bus_available"
	case errors.Is(err, ErrOutsideOperatingWindow):
		return "outside_operating_window"
	case errors.Is(err, hours.ErrDriverHourExceeded):
		return "driver_hour_exceeded"
	case errors.Is(err, hours.ErrWeeklyExceptionalQuota):
		return "weekly_exceptional_quota_exceeded"
	case errors.Is(err, occupancy.ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, availability.ErrSlotNotAvailable):
		return "slot_not_available"
	default:
		return "internal"
	}
}
