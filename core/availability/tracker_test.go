package availability

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/flotacoop/fleetcore/core/model"
)

func seedAt(t *Tracker, bus string, from time.Time) model.BusAvailabilitySlot {
	return t.Seed(model.BusAvailabilitySlot{
		BusID:         bus,
		CooperativaID: "coop1",
		TerminalID:    "T1",
		Date:          from,
		ArrivalTime:   from.Add(-45 * time.Minute),
		AvailableFrom: from,
	})
}

func TestFindAvailableOrdering(t *testing.T) {
	tr := NewTracker()
	at8 := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	seedAt(tr, "bus-b", at8)
	seedAt(tr, "bus-a", at8)
	seedAt(tr, "bus-c", at8.Add(-time.Hour))
	seedAt(tr, "bus-late", at8.Add(time.Hour))

	got := tr.FindAvailable("coop1", "T1", at8, at8)
	if len(got) != 3 {
		t.Fatalf("expected 3 matchable slots, got %d", len(got))
	}
	order := []string{got[0].BusID, got[1].BusID, got[2].BusID}
	want := []string{"bus-c", "bus-a", "bus-b"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order %v, want %v", order, want)
		}
	}
}

func TestFindAvailableScopedByCooperative(t *testing.T) {
	tr := NewTracker()
	at8 := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	seedAt(tr, "bus-a", at8)
	tr.Seed(model.BusAvailabilitySlot{BusID: "bus-x", CooperativaID: "coop2", TerminalID: "T1", Date: at8, AvailableFrom: at8})
	if got := tr.FindAvailable("coop1", "T1", at8, at8); len(got) != 1 || got[0].BusID != "bus-a" {
		t.Fatalf("cross-cooperative slot leaked: %v", got)
	}
}

func TestReserveAndRelease(t *testing.T) {
	tr := NewTracker()
	at8 := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	slot := seedAt(tr, "bus-a", at8)

	got, err := tr.Reserve(slot.ID, "trip-1")
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if got.State != model.SlotReserved || got.NextTripID != "trip-1" {
		t.Fatalf("unexpected slot %+v", got)
	}
	if _, err := tr.Reserve(slot.ID, "trip-2"); !errors.Is(err, ErrSlotNotAvailable) {
		t.Fatalf("second reserve must fail with ErrSlotNotAvailable, got %v", err)
	}
	// Wrong trip cannot release.
	if tr.Release(slot.ID, "trip-2") {
		t.Fatalf("foreign trip released the slot")
	}
	if !tr.Release(slot.ID, "trip-1") {
		t.Fatalf("release failed")
	}
	// Idempotent: second release is a no-op.
	if tr.Release(slot.ID, "trip-1") {
		t.Fatalf("second release must be a no-op")
	}
	if got, _ := tr.Get(slot.ID); got.State != model.SlotAvailable || got.NextTripID != "" {
		t.Fatalf("slot not back to available: %+v", got)
	}
}

func TestConcurrentReserveSingleWinner(t *testing.T) {
	tr := NewTracker()
	at8 := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	slot := seedAt(tr, "bus-a", at8)

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = tr.Reserve(slot.ID, "trip-"+string(rune('a'+i)))
		}(i)
	}
	wg.Wait()
	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else if !errors.Is(err, ErrSlotNotAvailable) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
	if got, _ := tr.Get(slot.ID); got.State != model.SlotReserved {
		t.Fatalf("slot must end reserved exactly once: %+v", got)
	}
}

func TestPlanAndRecordArrival(t *testing.T) {
	tr := NewTracker()
	arrival := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	planned := tr.PlanArrival("coop1", "bus-a", "T2", "trip-1", arrival, 45)
	if planned.State != model.SlotPendingArrival {
		t.Fatalf("planned slot state %s", planned.State)
	}
	if want := arrival.Add(45 * time.Minute); !planned.AvailableFrom.Equal(want) {
		t.Fatalf("availableFrom = %v, want %v", planned.AvailableFrom, want)
	}
	// Pending slots never match a departure.
	if got := tr.FindAvailable("coop1", "T2", arrival, arrival.Add(2*time.Hour)); len(got) != 0 {
		t.Fatalf("pending slot matched: %v", got)
	}

	late := arrival.Add(20 * time.Minute)
	active := tr.RecordArrival("coop1", "bus-a", "T2", late, 45)
	if active.ID != planned.ID {
		t.Fatalf("arrival did not activate the planned slot")
	}
	if active.State != model.SlotAvailable || !active.AvailableFrom.Equal(late.Add(45*time.Minute)) {
		t.Fatalf("unexpected active slot %+v", active)
	}
}

func TestRecordArrivalWithoutPlanCreatesSlot(t *testing.T) {
	tr := NewTracker()
	arrival := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	s := tr.RecordArrival("coop1", "bus-b", "T3", arrival, 120)
	if s.State != model.SlotAvailable || !s.AvailableFrom.Equal(arrival.Add(2*time.Hour)) {
		t.Fatalf("unexpected slot %+v", s)
	}
}

func TestRecordArrivalRestCrossingMidnight(t *testing.T) {
	tr := NewTracker()
	monday := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)
	arrival := monday.Add(23*time.Hour + 30*time.Minute)

	s := tr.RecordArrival("coop1", "bus-a", "T1", arrival, 120)
	if !s.Date.Equal(tuesday) {
		t.Fatalf("slot dated %v, want %v", s.Date, tuesday)
	}
	// The bus is not a candidate on the arrival day.
	if got := tr.FindAvailable("coop1", "T1", monday, arrival.Add(time.Minute)); len(got) != 0 {
		t.Fatalf("bus matched while resting: %v", got)
	}
	// It serves departures the next day, once the rest completes.
	got := tr.FindAvailable("coop1", "T1", tuesday, tuesday.Add(8*time.Hour))
	if len(got) != 1 || got[0].BusID != "bus-a" {
		t.Fatalf("bus resting into the next day not found: %v", got)
	}
	next, ok := tr.NextAvailable("coop1", "T1", tuesday)
	if !ok || !next.Equal(tuesday.Add(90*time.Minute)) {
		t.Fatalf("next available = %v, %v", next, ok)
	}
}

func TestPlanArrivalRestCrossingMidnight(t *testing.T) {
	tr := NewTracker()
	monday := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)

	planned := tr.PlanArrival("coop1", "bus-a", "T2", "trip-1", monday.Add(23*time.Hour), 120)
	if !planned.Date.Equal(tuesday) {
		t.Fatalf("planned slot dated %v, want %v", planned.Date, tuesday)
	}

	// A delayed actual arrival still activates the planned slot.
	late := monday.Add(23*time.Hour + 40*time.Minute)
	active := tr.RecordArrival("coop1", "bus-a", "T2", late, 120)
	if active.ID != planned.ID {
		t.Fatalf("arrival did not activate the planned slot")
	}
	if !active.AvailableFrom.Equal(late.Add(2*time.Hour)) || !active.Date.Equal(tuesday) {
		t.Fatalf("unexpected active slot %+v", active)
	}
}

func TestVoidKeepsReservedSlots(t *testing.T) {
	tr := NewTracker()
	arrival := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	planned := tr.PlanArrival("coop1", "bus-a", "T2", "trip-1", arrival, 45)
	if !tr.Void(planned.ID) {
		t.Fatalf("void of a pending slot must succeed")
	}
	if _, ok := tr.Get(planned.ID); ok {
		t.Fatalf("voided slot still present")
	}

	slot := seedAt(tr, "bus-a", arrival)
	if _, err := tr.Reserve(slot.ID, "trip-2"); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if tr.Void(slot.ID) {
		t.Fatalf("reserved slot must not be voided")
	}
}

func TestOutOfServiceIsTerminal(t *testing.T) {
	tr := NewTracker()
	at8 := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	slot := seedAt(tr, "bus-a", at8)
	if err := tr.MarkOutOfService(slot.ID); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if _, err := tr.Reserve(slot.ID, "trip-1"); !errors.Is(err, ErrSlotNotAvailable) {
		t.Fatalf("out-of-service slot reserved: %v", err)
	}
	if err := tr.MarkResting(slot.ID); err == nil {
		t.Fatalf("out of service must not transition back")
	}
}
