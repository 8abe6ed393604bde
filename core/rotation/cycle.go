package rotation

import (
	"fmt"
	"time"

	"github.com/flotacoop/fleetcore/core/availability"
	"github.com/flotacoop/fleetcore/core/model"
)

// Entry assigns a bus to a route departure for one day of the cycle.
type Entry struct {
	DayInCycle          int    `json:"day_in_cycle" yaml:"day_in_cycle"`
	Order               int    `json:"order" yaml:"order"`
	BusID               string `json:"bus_id" yaml:"bus_id"`
	RouteRef            string `json:"route_ref" yaml:"route_ref"`
	TerminalOrigin      string `json:"terminal_origin" yaml:"terminal_origin"`
	TerminalDestination string `json:"terminal_destination" yaml:"terminal_destination"`
	// DepartureTime is the wall-clock departure in HH:MM.
	DepartureTime string `json:"departure_time" yaml:"departure_time"`
}

// At anchors the entry's departure time on the given date.
func (e Entry) At(date time.Time) (time.Time, error) {
	t, err := time.Parse("15:04", e.DepartureTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("entry day %d order %d: bad departure time %q: %w", e.DayInCycle, e.Order, e.DepartureTime, err)
	}
	d := model.DateOf(date)
	return d.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute), nil
}

// Cycle is an N-day repeating template mapping (cycle day, departure order) to
// a bus, route and terminal pair. It is a seeding hint, never a hard
// constraint: the orchestrator overrides it when the nominal bus is not
// available.
type Cycle struct {
	CooperativaID   string  `json:"cooperativa_id" yaml:"cooperativa_id"`
	CycleStart      string  `json:"cycle_start" yaml:"cycle_start"`
	CycleLengthDays int     `json:"cycle_length_days" yaml:"cycle_length_days"`
	Entries         []Entry `json:"entries" yaml:"entries"`
}

func (c Cycle) start() (time.Time, error) {
	t, err := time.Parse("2006-01-02", c.CycleStart)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad cycle_start %q: %w", c.CycleStart, err)
	}
	return t, nil
}

// Validate checks the cycle shape and the uniqueness of (day, order, bus).
func (c Cycle) Validate() error {
	if c.CycleLengthDays <= 0 {
		return fmt.Errorf("cycle_length_days must be positive")
	}
	if _, err := c.start(); err != nil {
		return err
	}
	seen := make(map[[3]string]struct{}, len(c.Entries))
	for _, e := range c.Entries {
		if e.DayInCycle < 1 || e.DayInCycle > c.CycleLengthDays {
			return fmt.Errorf("entry order %d: day %d outside cycle of %d days", e.Order, e.DayInCycle, c.CycleLengthDays)
		}
		if _, err := e.At(time.Now()); err != nil {
			return err
		}
		k := [3]string{fmt.Sprint(e.DayInCycle), fmt.Sprint(e.Order), e.BusID}
		if _, dup := seen[k]; dup {
			return fmt.Errorf("duplicate entry day %d order %d bus %s", e.DayInCycle, e.Order, e.BusID)
		}
		seen[k] = struct{}{}
	}
	return nil
}

// DayInCycle maps a calendar date onto the repeating template, 1-based.
func (c Cycle) DayInCycle(date time.Time) (int, bool) {
	start, err := c.start()
	if err != nil || c.CycleLengthDays <= 0 {
		return 0, false
	}
	days := int(model.DateOf(date).Sub(model.DateOf(start)).Hours() / 24)
	if days < 0 {
		return 0, false
	}
	return days%c.CycleLengthDays + 1, true
}

// DefaultBusFor returns the nominal bus for the date and departure order, or
// false when no entry matches.
func (c Cycle) DefaultBusFor(date time.Time, order int) (string, bool) {
	day, ok := c.DayInCycle(date)
	if !ok {
		return "", false
	}
	for _, e := range c.Entries {
		if e.DayInCycle == day && e.Order == order {
			return e.BusID, true
		}
	}
	return "", false
}

// EntryFor matches an entry by origin terminal and wall-clock departure, used
// when a proposal carries no departure order.
func (c Cycle) EntryFor(date time.Time, terminalOrigin string, departure time.Time) (Entry, bool) {
	day, ok := c.DayInCycle(date)
	if !ok {
		return Entry{}, false
	}
	hhmm := departure.Format("15:04")
	for _, e := range c.Entries {
		if e.DayInCycle == day && e.TerminalOrigin == terminalOrigin && e.DepartureTime == hhmm {
			return e, true
		}
	}
	return Entry{}, false
}

// SeedDay materializes Available slots for every bus the template parks at its
// origin terminal on the given date. Buses rest overnight, so the slots are
// available from midnight. Returns the number of slots seeded.
func (c Cycle) SeedDay(tr *availability.Tracker, date time.Time) int {
	day, ok := c.DayInCycle(date)
	if !ok {
		return 0
	}
	n := 0
	for _, e := range c.Entries {
		if e.DayInCycle != day {
			continue
		}
		tr.Seed(model.BusAvailabilitySlot{
			BusID:         e.BusID,
			CooperativaID: c.CooperativaID,
			TerminalID:    e.TerminalOrigin,
			Date:          date,
			AvailableFrom: model.DateOf(date),
		})
		n++
	}
	return n
}
