package occupancy

import (
	"sort"
	"sync"
	"time"

	"github.com/flotacoop/fleetcore/core/model"
)

// TerminalCatalog resolves the physical capacity of a terminal. It is
// supplied by the surrounding application.
type TerminalCatalog interface {
	Capacity(terminalID string) (model.TerminalCapacity, error)
}

type cellKey struct {
	terminalID string
	date       time.Time
	hour       int
}

// Counter tracks how many trips are anchored at each terminal hour slot.
// CheckAndReserve is the single point of truth for terminal saturation: the
// compare and the increment happen inside the same critical section.
type Counter struct {
	mu      sync.Mutex
	catalog TerminalCatalog
	cells   map[cellKey]int
}

// NewCounter creates a Counter backed by the given catalog.
func NewCounter(catalog TerminalCatalog) *Counter {
	return &Counter{catalog: catalog, cells: make(map[cellKey]int)}
}

// Capacity returns the hourly slot capacity of the terminal.
func (c *Counter) Capacity(terminalID string) (int, error) {
	cap, err := c.catalog.Capacity(terminalID)
	if err != nil {
		return 0, err
	}
	return cap.PerHour(), nil
}

// Assigned returns the current count for the terminal hour slot.
func (c *Counter) Assigned(terminalID string, date time.Time, hourSlot int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cells[cellKey{terminalID, model.DateOf(date), hourSlot}]
}

// CheckAndReserve increments the slot count only while it is below capacity,
// failing with ErrCapacityExceeded otherwise.
func (c *Counter) CheckAndReserve(terminalID string, date time.Time, hourSlot int) error {
	capacity, err := c.Capacity(terminalID)
	if err != nil {
		return err
	}
	k := cellKey{terminalID, model.DateOf(date), hourSlot}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cells[k] >= capacity {
		return &CapacityError{
			TerminalID: terminalID,
			Date:       k.date,
			HourSlot:   hourSlot,
			Assigned:   c.cells[k],
			Capacity:   capacity,
		}
	}
	c.cells[k]++
	return nil
}

// Release decrements the slot count, floored at zero.
func (c *Counter) Release(terminalID string, date time.Time, hourSlot int) {
	k := cellKey{terminalID, model.DateOf(date), hourSlot}
	c.mu.Lock()
	if c.cells[k] > 0 {
		c.cells[k]--
	}
	c.mu.Unlock()
}

// SuggestLowOccupancySlots returns up to topN hour slots in [startHour,
// endHour] ordered by ascending count, earlier hours first on ties. Callers
// pass the cooperative's operating window.
func (c *Counter) SuggestLowOccupancySlots(terminalID string, date time.Time, startHour, endHour, topN int) []model.TerminalOccupancyCell {
	day := model.DateOf(date)
	c.mu.Lock()
	var cells []model.TerminalOccupancyCell
	for h := startHour; h <= endHour; h++ {
		cells = append(cells, model.TerminalOccupancyCell{
			TerminalID: terminalID,
			Date:       day,
			HourSlot:   h,
			Assigned:   c.cells[cellKey{terminalID, day, h}],
		})
	}
	c.mu.Unlock()
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Assigned != cells[j].Assigned {
			return cells[i].Assigned < cells[j].Assigned
		}
		return cells[i].HourSlot < cells[j].HourSlot
	})
	if topN > 0 && len(cells) > topN {
		cells = cells[:topN]
	}
	return cells
}
