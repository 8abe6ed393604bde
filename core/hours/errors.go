package hours

import (
	"errors"
	"fmt"
	"time"
)

// ErrDriverHourExceeded is matched by errors.Is when a reservation would pass
// the exceptional daily cap.
var ErrDriverHourExceeded = errors.New("driver hour cap exceeded")

// ErrWeeklyExceptionalQuota is matched by errors.Is when a reservation would
// open one exceptional day too many in the same week.
var ErrWeeklyExceptionalQuota = errors.New("weekly exceptional day quota exceeded")

// HourExceededError carries the numbers behind a daily cap rejection.
type HourExceededError struct {
	DriverID  string
	Date      time.Time
	WorkedMin int
	TripMin   int
	CapMin    int
}

func (e *HourExceededError) Error() string {
	return fmt.Sprintf("driver %s on %s: %d worked + %d requested exceeds cap of %d minutes",
		e.DriverID, e.Date.Format("2006-01-02"), e.WorkedMin, e.TripMin, e.CapMin)
}

func (e *HourExceededError) Unwrap() error { return ErrDriverHourExceeded }

// WeeklyQuotaError carries the numbers behind a weekly quota rejection.
type WeeklyQuotaError struct {
	DriverID  string
	WeekStart time.Time
	Used      int
	Quota     int
}

func (e *WeeklyQuotaError) Error() string {
	return fmt.Sprintf("driver %s week of %s: %d of %d exceptional days already used",
		e.DriverID, e.WeekStart.Format("2006-01-02"), e.Used, e.Quota)
}

func (e *WeeklyQuotaError) Unwrap() error { return ErrWeeklyExceptionalQuota }
