package occupancy

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/flotacoop/fleetcore/core/model"
)

type fakeCatalog map[string]model.TerminalCapacity

func (f fakeCatalog) Capacity(id string) (model.TerminalCapacity, error) {
	cap, ok := f[id]
	if !ok {
		return model.TerminalCapacity{}, fmt.Errorf("unknown terminal %s", id)
	}
	return cap, nil
}

var june1 = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func newTestCounter() *Counter {
	return NewCounter(fakeCatalog{"T": {Platforms: 2, ThroughputPerPlatform: 2}})
}

func TestCheckAndReserveSaturates(t *testing.T) {
	c := newTestCounter()
	for i := 0; i < 4; i++ {
		if err := c.CheckAndReserve("T", june1, 8); err != nil {
			t.Fatalf("reserve %d: %v", i, err)
		}
	}
	err := c.CheckAndReserve("T", june1, 8)
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	var ce *CapacityError
	if !errors.As(err, &ce) || ce.TerminalID != "T" || ce.HourSlot != 8 || ce.Capacity != 4 {
		t.Fatalf("wrong rejection detail: %#v", ce)
	}
	// 09:00 has its own cell.
	if err := c.CheckAndReserve("T", june1, 9); err != nil {
		t.Fatalf("09:00 slot: %v", err)
	}
}

func TestReleaseFloorsAtZero(t *testing.T) {
	c := newTestCounter()
	c.Release("T", june1, 8)
	if n := c.Assigned("T", june1, 8); n != 0 {
		t.Fatalf("assigned = %d", n)
	}
	if err := c.CheckAndReserve("T", june1, 8); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	c.Release("T", june1, 8)
	c.Release("T", june1, 8)
	if n := c.Assigned("T", june1, 8); n != 0 {
		t.Fatalf("assigned = %d after double release", n)
	}
}

func TestConcurrentReserveNeverOverbooks(t *testing.T) {
	c := newTestCounter()
	var wg sync.WaitGroup
	granted := make([]bool, 32)
	for i := range granted {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			granted[i] = c.CheckAndReserve("T", june1, 8) == nil
		}(i)
	}
	wg.Wait()
	wins := 0
	for _, g := range granted {
		if g {
			wins++
		}
	}
	if wins != 4 {
		t.Fatalf("granted %d reservations, capacity is 4", wins)
	}
	if n := c.Assigned("T", june1, 8); n != 4 {
		t.Fatalf("assigned = %d", n)
	}
}

func TestSuggestLowOccupancySlots(t *testing.T) {
	c := newTestCounter()
	for i := 0; i < 3; i++ {
		if err := c.CheckAndReserve("T", june1, 8); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.CheckAndReserve("T", june1, 9); err != nil {
		t.Fatal(err)
	}
	got := c.SuggestLowOccupancySlots("T", june1, 7, 10, 3)
	if len(got) != 3 {
		t.Fatalf("got %d suggestions", len(got))
	}
	// 07:00 and 10:00 are empty, 09:00 has one, 08:00 has three.
	if got[0].HourSlot != 7 || got[1].HourSlot != 10 || got[2].HourSlot != 9 {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestUnknownTerminal(t *testing.T) {
	c := newTestCounter()
	if err := c.CheckAndReserve("nope", june1, 8); err == nil {
		t.Fatalf("unknown terminal must fail")
	}
}
