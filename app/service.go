package app

import (
	"context"
	"fmt"
	"time"

	"github.com/flotacoop/fleetcore/config"
	"github.com/flotacoop/fleetcore/core/availability"
	"github.com/flotacoop/fleetcore/core/hours"
	coremetrics "github.com/flotacoop/fleetcore/core/metrics"
	"github.com/flotacoop/fleetcore/core/occupancy"
	"github.com/flotacoop/fleetcore/core/rotation"
	"github.com/flotacoop/fleetcore/core/schedule"
	"github.com/flotacoop/fleetcore/core/schedule/logging"
	"github.com/flotacoop/fleetcore/infra/logger"
	"github.com/flotacoop/fleetcore/infra/metrics"
	"github.com/flotacoop/fleetcore/internal/eventbus"
)

// Service wires the assignment manager to its ledgers, stores and sinks.
type Service struct {
	Manager     *schedule.AssignmentManager
	Tracker     *availability.Tracker
	cycles      []rotation.Cycle
	bus         eventbus.EventBus
	sink        coremetrics.MetricsSink
	log         logger.Logger
	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink coremetrics.MetricsSink
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New()
	tracker := availability.NewTracker()
	counter := occupancy.NewCounter(cfg.TerminalCatalog())
	configs := schedule.NewStaticConfigProvider(cfg.Cooperatives...)

	manager, err := schedule.NewAssignmentManager(
		configs,
		hours.NewLedger(),
		tracker,
		counter,
		sink,
		bus,
		logg,
	)
	if err != nil {
		return nil, fmt.Errorf("assignment manager: %w", err)
	}
	if len(cfg.Routes) > 0 {
		manager.SetRouteCatalog(cfg.RouteCatalog())
	}

	store, err := newLogStore(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("log store: %w", err)
	}
	manager.SetLogStore(store)

	var cycles []rotation.Cycle
	for _, path := range cfg.RotationFiles {
		cyc, err := rotation.LoadCycle(path)
		if err != nil {
			return nil, fmt.Errorf("rotation %s: %w", path, err)
		}
		manager.SetRotation(cyc)
		cycles = append(cycles, cyc)
	}

	return &Service{
		Manager:     manager,
		Tracker:     tracker,
		cycles:      cycles,
		bus:         bus,
		sink:        sink,
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}, nil
}

func newLogStore(cfg config.LoggingConfig) (logging.LogStore, error) {
	switch cfg.Backend {
	case "sqlite":
		return logging.NewSQLiteStore(cfg.Path)
	default:
		if cfg.MaxSizeMB > 0 {
			return logging.NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
		}
		return logging.NewJSONLStore(cfg.Path)
	}
}

// Run seeds today's availability from the rotation cycles, starts the metric
// plumbing and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	today := time.Now().UTC()
	for _, cyc := range s.cycles {
		n := cyc.SeedDay(s.Tracker, today)
		s.log.Infof("seeded %d slots for %s", n, cyc.CooperativaID)
	}
	if s.sink != nil {
		go metrics.StartEventCollector(ctx, s.bus, s.sink)
	}
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	<-ctx.Done()
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error { return s.Manager.Close() }
