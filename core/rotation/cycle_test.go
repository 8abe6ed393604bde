package rotation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/flotacoop/fleetcore/core/availability"
)

func testCycle() Cycle {
	return Cycle{
		CooperativaID:   "coop1",
		CycleStart:      "2025-06-01",
		CycleLengthDays: 3,
		Entries: []Entry{
			{DayInCycle: 1, Order: 1, BusID: "bus-a", RouteRef: "R1", TerminalOrigin: "T1", TerminalDestination: "T2", DepartureTime: "06:00"},
			{DayInCycle: 1, Order: 2, BusID: "bus-b", RouteRef: "R2", TerminalOrigin: "T1", TerminalDestination: "T3", DepartureTime: "07:30"},
			{DayInCycle: 2, Order: 1, BusID: "bus-b", RouteRef: "R1", TerminalOrigin: "T1", TerminalDestination: "T2", DepartureTime: "06:00"},
		},
	}
}

func TestDayInCycleMapping(t *testing.T) {
	c := testCycle()
	cases := []struct {
		date string
		day  int
	}{
		{"2025-06-01", 1},
		{"2025-06-02", 2},
		{"2025-06-03", 3},
		{"2025-06-04", 1},
		{"2025-06-10", 1},
	}
	for _, tc := range cases {
		d, _ := time.Parse("2006-01-02", tc.date)
		day, ok := c.DayInCycle(d)
		if !ok || day != tc.day {
			t.Fatalf("%s: day = %d ok=%v, want %d", tc.date, day, ok, tc.day)
		}
	}
	before, _ := time.Parse("2006-01-02", "2025-05-31")
	if _, ok := c.DayInCycle(before); ok {
		t.Fatalf("dates before cycle start have no cycle day")
	}
}

func TestDefaultBusFor(t *testing.T) {
	c := testCycle()
	d, _ := time.Parse("2006-01-02", "2025-06-04") // day 1 again
	bus, ok := c.DefaultBusFor(d, 2)
	if !ok || bus != "bus-b" {
		t.Fatalf("bus = %q ok=%v", bus, ok)
	}
	if _, ok := c.DefaultBusFor(d, 9); ok {
		t.Fatalf("missing order must return no default")
	}
}

func TestEntryFor(t *testing.T) {
	c := testCycle()
	dep := time.Date(2025, 6, 1, 7, 30, 0, 0, time.UTC)
	e, ok := c.EntryFor(dep, "T1", dep)
	if !ok || e.BusID != "bus-b" {
		t.Fatalf("entry = %+v ok=%v", e, ok)
	}
	if _, ok := c.EntryFor(dep, "T9", dep); ok {
		t.Fatalf("wrong terminal must not match")
	}
}

func TestValidateRejectsDuplicates(t *testing.T) {
	c := testCycle()
	c.Entries = append(c.Entries, c.Entries[0])
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestSeedDay(t *testing.T) {
	c := testCycle()
	tr := availability.NewTracker()
	d, _ := time.Parse("2006-01-02", "2025-06-01")
	if n := c.SeedDay(tr, d); n != 2 {
		t.Fatalf("seeded %d slots, want 2", n)
	}
	dep := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	slots := tr.FindAvailable("coop1", "T1", d, dep)
	if len(slots) != 2 {
		t.Fatalf("expected 2 available slots, got %d", len(slots))
	}
}

func TestLoadCycleYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cycle.yaml")
	data := `cooperativa_id: coop1
cycle_start: "2025-06-01"
cycle_length_days: 2
entries:
  - day_in_cycle: 1
    order: 1
    bus_id: bus-a
    route_ref: R1
    terminal_origin: T1
    terminal_destination: T2
    departure_time: "06:00"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := LoadCycle(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.CycleLengthDays != 2 || len(c.Entries) != 1 || c.Entries[0].BusID != "bus-a" {
		t.Fatalf("unexpected cycle %+v", c)
	}
	if _, err := LoadCycle(filepath.Join(dir, "cycle.toml")); err == nil {
		t.Fatalf("unsupported format must fail")
	}
}
