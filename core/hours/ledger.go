package hours

import (
	"sync"
	"time"

	"github.com/flotacoop/fleetcore/core/model"
)

// Caps bundles the working-hour limits a cooperative imposes on its drivers.
type Caps struct {
	NormalDailyMin            int
	ExceptionalDailyMin       int
	MaxExceptionalDaysPerWeek int
}

type dayKey struct {
	driverID string
	date     time.Time
}

// Ledger tracks worked minutes per driver and calendar day. Day records are
// created lazily on first reservation and never deleted, so weekly aggregation
// can always look back over the reporting window.
type Ledger struct {
	mu   sync.RWMutex
	days map[dayKey]*model.DriverDayRecord
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{days: make(map[dayKey]*model.DriverDayRecord)}
}

func (l *Ledger) record(driverID string, date time.Time) *model.DriverDayRecord {
	k := dayKey{driverID: driverID, date: model.DateOf(date)}
	rec, ok := l.days[k]
	if !ok {
		rec = &model.DriverDayRecord{DriverID: driverID, Date: k.date}
		l.days[k] = rec
	}
	return rec
}

// Day returns a copy of the driver's record for the given date, lazily
// initializing an empty one.
func (l *Ledger) Day(driverID string, date time.Time) model.DriverDayRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.record(driverID, date)
}

// RemainingMinutes returns the minutes left under the normal cap and,
// separately, under the exceptional cap.
func (l *Ledger) RemainingMinutes(driverID string, date time.Time, caps Caps) (normal, exceptional int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	worked := l.record(driverID, date).MinutesWorked
	if normal = caps.NormalDailyMin - worked; normal < 0 {
		normal = 0
	}
	if exceptional = caps.ExceptionalDailyMin - worked; exceptional < 0 {
		exceptional = 0
	}
	return normal, exceptional
}

// WeeklyExceptionalDaysUsed counts the exceptional days of the driver in
// [weekStart, weekStart+6].
func (l *Ledger) WeeklyExceptionalDaysUsed(driverID string, weekStart time.Time) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.weeklyExceptional(driverID, weekStart)
}

func (l *Ledger) weeklyExceptional(driverID string, weekStart time.Time) int {
	start := model.DateOf(weekStart)
	n := 0
	for i := 0; i < 7; i++ {
		k := dayKey{driverID: driverID, date: start.AddDate(0, 0, i)}
		if rec, ok := l.days[k]; ok && rec.IsExceptionalDay {
			n++
		}
	}
	return n
}

// Reserve adds minutes to the driver's day. The day is flagged exceptional
// when the new total passes the normal cap. It fails when the new total would
// pass the exceptional cap, or when flipping the day to exceptional would
// exceed the weekly exceptional-day quota.
func (l *Ledger) Reserve(coopID, driverID string, date time.Time, minutes int, distanceKm float64, caps Caps) (model.DriverDayRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec := l.record(driverID, date)
	total := rec.MinutesWorked + minutes
	if total > caps.ExceptionalDailyMin {
		return model.DriverDayRecord{}, &HourExceededError{
			DriverID:  driverID,
			Date:      rec.Date,
			WorkedMin: rec.MinutesWorked,
			TripMin:   minutes,
			CapMin:    caps.ExceptionalDailyMin,
		}
	}
	if total > caps.NormalDailyMin && !rec.IsExceptionalDay {
		used := l.weeklyExceptional(driverID, model.WeekStart(date))
		if used >= caps.MaxExceptionalDaysPerWeek {
			return model.DriverDayRecord{}, &WeeklyQuotaError{
				DriverID:  driverID,
				WeekStart: model.WeekStart(date),
				Used:      used,
				Quota:     caps.MaxExceptionalDaysPerWeek,
			}
		}
	}
	rec.CooperativaID = coopID
	rec.MinutesWorked = total
	rec.IsExceptionalDay = total > caps.NormalDailyMin
	rec.TripsCompleted++
	rec.DistanceKm += distanceKm
	return *rec, nil
}

// Release is the compensating write of Reserve: it subtracts the reserved
// minutes, floored at zero, and recomputes the exceptional flag.
func (l *Ledger) Release(driverID string, date time.Time, minutes int, distanceKm float64, caps Caps) model.DriverDayRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec := l.record(driverID, date)
	if rec.MinutesWorked -= minutes; rec.MinutesWorked < 0 {
		rec.MinutesWorked = 0
	}
	rec.IsExceptionalDay = rec.MinutesWorked > caps.NormalDailyMin
	if rec.TripsCompleted--; rec.TripsCompleted < 0 {
		rec.TripsCompleted = 0
	}
	if rec.DistanceKm -= distanceKm; rec.DistanceKm < 0 {
		rec.DistanceKm = 0
	}
	return *rec
}
