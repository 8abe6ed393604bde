package availability

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flotacoop/fleetcore/core/model"
)

// Tracker maintains the availability slots of a cooperative's buses. Each slot
// walks the state machine PendingArrival -> Available -> Reserved, with
// Resting and OutOfService side branches. Reserve is a check-then-act inside
// the tracker lock, so two racing reservations of the same slot see exactly
// one winner.
type Tracker struct {
	mu    sync.RWMutex
	slots map[string]*model.BusAvailabilitySlot
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{slots: make(map[string]*model.BusAvailabilitySlot)}
}

// Seed inserts a slot directly in the Available state. The rotation cycle uses
// it to materialize day-one availability. A missing ID is generated.
func (t *Tracker) Seed(slot model.BusAvailabilitySlot) model.BusAvailabilitySlot {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	slot.State = model.SlotAvailable
	slot.Date = model.DateOf(slot.Date)
	t.mu.Lock()
	t.slots[slot.ID] = &slot
	t.mu.Unlock()
	return slot
}

// Get returns a copy of the slot.
func (t *Tracker) Get(slotID string) (model.BusAvailabilitySlot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.slots[slotID]
	if !ok {
		return model.BusAvailabilitySlot{}, false
	}
	return *s, true
}

// FindAvailable lists the Available slots of the cooperative at the terminal
// whose rest completes at or before notBefore, ordered by AvailableFrom
// ascending, ties broken by BusID ascending for determinism.
func (t *Tracker) FindAvailable(coopID, terminalID string, date, notBefore time.Time) []model.BusAvailabilitySlot {
	day := model.DateOf(date)
	t.mu.RLock()
	var res []model.BusAvailabilitySlot
	for _, s := range t.slots {
		if s.CooperativaID != coopID || s.TerminalID != terminalID || !s.Date.Equal(day) {
			continue
		}
		if s.Matchable(notBefore) {
			res = append(res, *s)
		}
	}
	t.mu.RUnlock()
	sort.Slice(res, func(i, j int) bool {
		if !res[i].AvailableFrom.Equal(res[j].AvailableFrom) {
			return res[i].AvailableFrom.Before(res[j].AvailableFrom)
		}
		return res[i].BusID < res[j].BusID
	})
	return res
}

// NextAvailable returns the earliest rest-completion time among the
// cooperative's slots at the terminal for the day, regardless of how late it
// is. Callers use it as advisory data on rejection.
func (t *Tracker) NextAvailable(coopID, terminalID string, date time.Time) (time.Time, bool) {
	day := model.DateOf(date)
	t.mu.RLock()
	defer t.mu.RUnlock()
	var best time.Time
	found := false
	for _, s := range t.slots {
		if s.CooperativaID != coopID || s.TerminalID != terminalID || !s.Date.Equal(day) {
			continue
		}
		if s.State != model.SlotAvailable && s.State != model.SlotPendingArrival {
			continue
		}
		if !found || s.AvailableFrom.Before(best) {
			best = s.AvailableFrom
			found = true
		}
	}
	return best, found
}

// Reserve transitions the slot Available -> Reserved for the given trip. A
// slot in any other state fails with ErrSlotNotAvailable.
func (t *Tracker) Reserve(slotID, tripID string) (model.BusAvailabilitySlot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.slots[slotID]
	if !ok {
		return model.BusAvailabilitySlot{}, &SlotStateError{SlotID: slotID}
	}
	if s.State != model.SlotAvailable {
		return model.BusAvailabilitySlot{}, &SlotStateError{SlotID: slotID, State: s.State}
	}
	s.State = model.SlotReserved
	s.NextTripID = tripID
	return *s, nil
}

// Release reverses a reservation. The transition only happens when the
// reserving trip matches, so a second release of the same trip is a no-op.
func (t *Tracker) Release(slotID, tripID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.slots[slotID]
	if !ok || s.State != model.SlotReserved || s.NextTripID != tripID {
		return false
	}
	s.State = model.SlotAvailable
	s.NextTripID = ""
	return true
}

// PlanArrival seeds the PendingArrival slot the committed trip will produce at
// its destination. AvailableFrom is the planned arrival plus the rest minutes
// of the trip class, and Date is the day the rest completes, so a rest that
// runs past midnight lands the slot on the next day.
func (t *Tracker) PlanArrival(coopID, busID, terminalID, tripID string, arrival time.Time, restMin int) model.BusAvailabilitySlot {
	availableFrom := arrival.Add(time.Duration(restMin) * time.Minute)
	slot := model.BusAvailabilitySlot{
		ID:            uuid.NewString(),
		BusID:         busID,
		CooperativaID: coopID,
		TerminalID:    terminalID,
		Date:          model.DateOf(availableFrom),
		ArrivalTime:   arrival,
		AvailableFrom: availableFrom,
		OriginTripID:  tripID,
		State:         model.SlotPendingArrival,
	}
	t.mu.Lock()
	t.slots[slot.ID] = &slot
	t.mu.Unlock()
	return slot
}

// RecordArrival activates the bus's pending slot at the terminal with the
// actual arrival time, or creates an Available slot when no plan exists. The
// pending slot with the earliest planned arrival is the one activated; its
// Date is recomputed from the actual rest completion, which may cross
// midnight.
func (t *Tracker) RecordArrival(coopID, busID, terminalID string, arrival time.Time, restMin int) model.BusAvailabilitySlot {
	availableFrom := arrival.Add(time.Duration(restMin) * time.Minute)
	t.mu.Lock()
	defer t.mu.Unlock()
	var pending *model.BusAvailabilitySlot
	for _, s := range t.slots {
		if s.CooperativaID != coopID || s.BusID != busID || s.TerminalID != terminalID {
			continue
		}
		if s.State != model.SlotPendingArrival {
			continue
		}
		if pending == nil || s.ArrivalTime.Before(pending.ArrivalTime) {
			pending = s
		}
	}
	if pending != nil {
		pending.ArrivalTime = arrival
		pending.AvailableFrom = availableFrom
		pending.Date = model.DateOf(availableFrom)
		pending.State = model.SlotAvailable
		return *pending
	}
	slot := model.BusAvailabilitySlot{
		ID:            uuid.NewString(),
		BusID:         busID,
		CooperativaID: coopID,
		TerminalID:    terminalID,
		Date:          model.DateOf(availableFrom),
		ArrivalTime:   arrival,
		AvailableFrom: availableFrom,
		State:         model.SlotAvailable,
	}
	t.slots[slot.ID] = &slot
	return slot
}

// Void discards a planned slot during cancellation compensation. A slot that
// has already been reserved by a follow-up trip stays.
func (t *Tracker) Void(slotID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.slots[slotID]
	if !ok || s.State == model.SlotReserved {
		return false
	}
	delete(t.slots, slotID)
	return true
}

// MarkOutOfService flags the bus slot for maintenance. The state is terminal
// for the day.
func (t *Tracker) MarkOutOfService(slotID string) error {
	return t.branch(slotID, model.SlotOutOfService)
}

// MarkResting parks the slot in the Resting branch.
func (t *Tracker) MarkResting(slotID string) error {
	return t.branch(slotID, model.SlotResting)
}

func (t *Tracker) branch(slotID string, to model.SlotState) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.slots[slotID]
	if !ok {
		return &SlotStateError{SlotID: slotID}
	}
	if s.State == model.SlotOutOfService {
		return &SlotStateError{SlotID: slotID, State: s.State}
	}
	s.State = to
	return nil
}
