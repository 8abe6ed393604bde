package model

import (
	"testing"
	"time"
)

func TestClassifyTrip(t *testing.T) {
	if ClassifyTrip(99.9, 100) != Intraprovincial {
		t.Fatalf("below threshold must be intraprovincial")
	}
	if ClassifyTrip(100, 100) != Interprovincial {
		t.Fatalf("at threshold must be interprovincial")
	}
	if ClassifyTrip(250, 100) != Interprovincial {
		t.Fatalf("beyond threshold must be interprovincial")
	}
}

func TestWeekStart(t *testing.T) {
	// 2025-06-04 is a Wednesday; its week starts Monday 2025-06-02.
	d := time.Date(2025, 6, 4, 15, 30, 0, 0, time.UTC)
	ws := WeekStart(d)
	if ws != time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("unexpected week start: %v", ws)
	}
	if WeekStart(ws) != ws {
		t.Fatalf("monday must be its own week start")
	}
	sun := time.Date(2025, 6, 8, 23, 0, 0, 0, time.UTC)
	if WeekStart(sun) != ws {
		t.Fatalf("sunday belongs to the same week")
	}
}

func TestSlotMatchable(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	s := BusAvailabilitySlot{State: SlotAvailable, AvailableFrom: now}
	if !s.Matchable(now) {
		t.Fatalf("slot available exactly at departure must match")
	}
	if s.Matchable(now.Add(-time.Minute)) {
		t.Fatalf("slot still resting must not match")
	}
	s.State = SlotReserved
	if s.Matchable(now) {
		t.Fatalf("reserved slot must not match")
	}
}
