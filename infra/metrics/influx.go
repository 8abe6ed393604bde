package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/flotacoop/fleetcore/core/metrics"
	"github.com/flotacoop/fleetcore/infra/logger"
)

// InfluxSink writes assignment events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg coremetrics.Config) *InfluxSink {
	base := strings.TrimSuffix(cfg.InfluxURL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.InfluxToken,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg coremetrics.Config) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordAssignmentResult writes committed assignments as line protocol events.
func (s *InfluxSink) RecordAssignmentResult(res []coremetrics.AssignmentResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range res {
		p := write.NewPointWithMeasurement("assignment_event").
			AddTag("trip_id", r.TripID).
			AddTag("cooperativa_id", r.CooperativaID).
			AddTag("bus_id", r.BusID).
			AddTag("driver_id", r.DriverID).
			AddTag("trip_class", r.Class.String()).
			AddTag("exceptional", strconv.FormatBool(r.Exceptional)).
			AddTag("component", "assignment_manager").
			AddField("origin", r.TerminalOrigin).
			AddField("destination", r.TerminalDestino).
			AddField("duration_min", r.DurationMin).
			AddField("distance_km", round3(r.DistanceKm)).
			SetTime(r.CommittedAt)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordRejection writes the refused proposal and the violated constraint.
func (s *InfluxSink) RecordRejection(ev coremetrics.RejectionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("assignment_rejection").
		AddTag("cooperativa_id", ev.CooperativaID).
		AddTag("reason", ev.Reason).
		AddTag("component", "assignment_manager").
		AddField("terminal_id", ev.TerminalID).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordCommitLatency writes the commit wall time.
func (s *InfluxSink) RecordCommitLatency(lat coremetrics.CommitLatency) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("assignment_commit_latency").
		AddTag("cooperativa_id", lat.CooperativaID).
		AddTag("trip_class", lat.Class.String()).
		AddField("attempts", lat.Attempts).
		AddField("latency_ms", float64(lat.Latency.Milliseconds())).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordCancellation writes a cancellation event.
func (s *InfluxSink) RecordCancellation(coopID, tripID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("assignment_cancellation").
		AddTag("cooperativa_id", coopID).
		AddTag("trip_id", tripID).
		AddField("cancelled", true).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
