package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	coremetrics "github.com/flotacoop/fleetcore/core/metrics"
	"github.com/flotacoop/fleetcore/core/model"
)

func newTestSink(t *testing.T) (*InfluxSink, *string, func()) {
	t.Helper()
	body := new(string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		*body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	sink := NewInfluxSink(coremetrics.Config{
		InfluxURL:    srv.URL,
		InfluxToken:  "token",
		InfluxOrg:    "org",
		InfluxBucket: "bucket",
	})
	return sink, body, func() {
		sink.Close()
		srv.Close()
	}
}

func TestInfluxSink_RecordAssignmentResult(t *testing.T) {
	sink, body, cleanup := newTestSink(t)
	defer cleanup()

	now := time.Now()
	rec := coremetrics.AssignmentResult{
		TripID:          "trip-1",
		CooperativaID:   "coop-a",
		DriverID:        "drv-1",
		BusID:           "bus-1",
		TerminalOrigin:  "term-quito",
		TerminalDestino: "term-guayaquil",
		Class:           model.Interprovincial,
		DurationMin:     300,
		DistanceKm:      420,
		Exceptional:     false,
		CommittedAt:     now,
	}
	if err := sink.RecordAssignmentResult([]coremetrics.AssignmentResult{rec}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	for _, want := range []string{
		"assignment_event",
		"trip_id=trip-1",
		"cooperativa_id=coop-a",
		"trip_class=interprovincial",
		"exceptional=false",
	} {
		if !strings.Contains(*body, want) {
			t.Errorf("body missing %q: %s", want, *body)
		}
	}
}

func TestInfluxSink_RecordRejection(t *testing.T) {
	sink, body, cleanup := newTestSink(t)
	defer cleanup()

	ev := coremetrics.RejectionEvent{
		CooperativaID: "coop-a",
		Reason:        "capacity_exceeded",
		TerminalID:    "term-quito",
		Time:          time.Now(),
	}
	if err := sink.RecordRejection(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	if !strings.Contains(*body, "assignment_rejection") || !strings.Contains(*body, "reason=capacity_exceeded") {
		t.Errorf("unexpected body: %s", *body)
	}
}

func TestNewInfluxSinkWithFallbackReturnsNop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(coremetrics.Config{InfluxURL: srv.URL})
	if _, ok := sink.(coremetrics.NopSink); !ok {
		t.Fatalf("expected NopSink, got %T", sink)
	}
}
