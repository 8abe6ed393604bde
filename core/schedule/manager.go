package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flotacoop/fleetcore/core/availability"
	"github.com/flotacoop/fleetcore/core/events"
	"github.com/flotacoop/fleetcore/core/hours"
	"github.com/flotacoop/fleetcore/core/logger"
	coremetrics "github.com/flotacoop/fleetcore/core/metrics"
	"github.com/flotacoop/fleetcore/core/model"
	"github.com/flotacoop/fleetcore/core/occupancy"
	"github.com/flotacoop/fleetcore/core/rotation"
	"github.com/flotacoop/fleetcore/core/schedule/logging"
	"github.com/flotacoop/fleetcore/internal/eventbus"
)

// RouteCatalog resolves route distances for proposals that do not carry one.
// It is supplied by the surrounding application.
type RouteCatalog interface {
	DistanceKm(routeRef string) (float64, error)
}

// DriverBudget is the read view of a driver's remaining working time.
type DriverBudget struct {
	NormalRemainingMin        int
	ExceptionalRemainingMin   int
	WeeklyExceptionalDaysUsed int
}

type committedAssignment struct {
	asn       model.Assignment
	cancelled bool
}

// AssignmentManager validates trip proposals against the driver hour ledger,
// the bus availability tracker and the terminal occupancy counter, and
// commits accepted proposals to all three. Checks run in a fixed order and
// the first violated constraint wins; a commit that fails half-way unwinds
// the already-applied steps, so callers never observe partial state.
type AssignmentManager struct {
	configs ConfigProvider
	ledger  *hours.Ledger
	tracker *availability.Tracker
	counter *occupancy.Counter
	logger  logger.Logger
	metrics coremetrics.MetricsSink
	bus     eventbus.EventBus

	mu          sync.Mutex
	cycles      map[string]rotation.Cycle
	routes      RouteCatalog
	store       logging.LogStore
	maxAttempts int
	committed   map[string]*committedAssignment
}

// NewAssignmentManager creates a new manager. The metrics sink and event bus
// may be nil.
func NewAssignmentManager(configs ConfigProvider, ledger *hours.Ledger, tracker *availability.Tracker, counter *occupancy.Counter, sink coremetrics.MetricsSink, bus eventbus.EventBus, log logger.Logger) (*AssignmentManager, error) {
	if configs == nil || ledger == nil || tracker == nil || counter == nil || log == nil {
		return nil, fmt.Errorf("schedule: nil parameter provided to NewAssignmentManager")
	}
	return &AssignmentManager{
		configs:     configs,
		ledger:      ledger,
		tracker:     tracker,
		counter:     counter,
		logger:      log,
		metrics:     sink,
		bus:         bus,
		cycles:      make(map[string]rotation.Cycle),
		maxAttempts: 3,
		committed:   make(map[string]*committedAssignment),
	}, nil
}

// SetRotation registers the rotation cycle of a cooperative.
func (m *AssignmentManager) SetRotation(c rotation.Cycle) {
	m.mu.Lock()
	m.cycles[c.CooperativaID] = c
	m.mu.Unlock()
}

// SetRouteCatalog configures the catalog used to resolve missing distances.
func (m *AssignmentManager) SetRouteCatalog(rc RouteCatalog) {
	m.mu.Lock()
	m.routes = rc
	m.mu.Unlock()
}

// SetLogStore configures the store used to persist the assignment audit log.
func (m *AssignmentManager) SetLogStore(store logging.LogStore) {
	m.mu.Lock()
	m.store = store
	m.mu.Unlock()
}

// Close releases resources held by the manager.
func (m *AssignmentManager) Close() error {
	if m.bus != nil {
		m.bus.Close()
	}
	m.mu.Lock()
	store := m.store
	m.mu.Unlock()
	if store != nil {
		return store.Close()
	}
	return nil
}

// ValidateAndAssign runs the ordered constraint checks for the proposal and,
// on success, commits the assignment to every ledger. A slot conflict on an
// auto-resolved bus retries the whole validation, because an earlier check may
// no longer hold once another bus is picked.
func (m *AssignmentManager) ValidateAndAssign(ctx context.Context, p model.Proposal) (model.Assignment, error) {
	start := time.Now()
	cfg := m.configs.Get(p.CooperativaID)

	if p.DistanceKm <= 0 && p.RouteRef != "" {
		if rc := m.routeCatalog(); rc != nil {
			km, err := rc.DistanceKm(p.RouteRef)
			if err != nil {
				return model.Assignment{}, fmt.Errorf("route %s: %w", p.RouteRef, err)
			}
			p.DistanceKm = km
		}
	}
	durMin := int(p.Duration().Minutes())
	if durMin <= 0 {
		return model.Assignment{}, fmt.Errorf("proposal for %s: estimated arrival must be after departure", p.CooperativaID)
	}
	class := model.ClassifyTrip(p.DistanceKm, cfg.InterprovincialThresholdKm)

	var (
		asn      model.Assignment
		err      error
		attempts int
	)
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		attempts = attempt
		if ctx.Err() != nil {
			return model.Assignment{}, ctx.Err()
		}
		asn, err = m.tryCommit(p, cfg, class, durMin)
		if err == nil {
			break
		}
		if errors.Is(err, availability.ErrSlotNotAvailable) && p.BusID == "" && attempt < m.maxAttempts {
			commitRetries.Inc()
			m.logger.Warnf("slot conflict on attempt %d for %s, revalidating", attempt, p.CooperativaID)
			continue
		}
		break
	}
	if err != nil {
		return model.Assignment{}, m.reject(ctx, p, cfg, err)
	}

	proposalsTotal.WithLabelValues("committed").Inc()
	activeAssignments.Inc()
	m.logger.Infof("committed trip %s: bus %s driver %s %s->%s at %s",
		asn.TripID, asn.BusID, asn.DriverID, asn.TerminalOrigin, asn.TerminalDestino, asn.Departure.Format("15:04"))
	if m.bus != nil {
		m.bus.Publish(events.AssignmentCommitted{Assignment: asn, Attempts: attempts, Time: time.Now()})
	}
	m.appendLog(ctx, logging.LogRecord{
		Timestamp:     time.Now(),
		Action:        logging.ActionCommit,
		TripID:        asn.TripID,
		CooperativaID: asn.CooperativaID,
		Proposal:      p,
		Assignment:    &asn,
	})
	m.recordCommitMetrics(asn, class, attempts, time.Since(start))
	return asn, nil
}

// tryCommit performs one pass of the ordered checks followed by the composite
// state update. Already-applied steps are undone in reverse when a later step
// fails.
func (m *AssignmentManager) tryCommit(p model.Proposal, cfg CooperativeConfig, class model.TripClass, durMin int) (model.Assignment, error) {
	depHour := model.HourSlotOf(p.Departure)
	if !cfg.InWindow(depHour) {
		return model.Assignment{}, &WindowError{Hour: depHour, StartHour: cfg.OperatingStartHour, EndHour: cfg.OperatingEndHour}
	}

	slot, err := m.resolveSlot(p)
	if err != nil {
		return model.Assignment{}, err
	}

	tripID := uuid.NewString()
	var undo []func()
	unwind := func() {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
	}

	if _, err := m.tracker.Reserve(slot.ID, tripID); err != nil {
		return model.Assignment{}, err
	}
	undo = append(undo, func() { m.tracker.Release(slot.ID, tripID) })

	rec, err := m.ledger.Reserve(p.CooperativaID, p.DriverID, p.Date, durMin, p.DistanceKm, cfg.Caps())
	if err != nil {
		unwind()
		return model.Assignment{}, err
	}
	undo = append(undo, func() { m.ledger.Release(p.DriverID, p.Date, durMin, p.DistanceKm, cfg.Caps()) })

	if err := m.counter.CheckAndReserve(p.TerminalOrigin, p.Date, depHour); err != nil {
		unwind()
		return model.Assignment{}, err
	}
	undo = append(undo, func() { m.counter.Release(p.TerminalOrigin, p.Date, depHour) })

	arrHour := model.HourSlotOf(p.EstimatedArrival)
	if err := m.counter.CheckAndReserve(p.TerminalDestino, p.EstimatedArrival, arrHour); err != nil {
		unwind()
		return model.Assignment{}, err
	}
	undo = append(undo, func() { m.counter.Release(p.TerminalDestino, p.EstimatedArrival, arrHour) })

	next := m.tracker.PlanArrival(p.CooperativaID, slot.BusID, p.TerminalDestino, tripID, p.EstimatedArrival, cfg.RestMinutes(class))

	asn := model.Assignment{
		TripID:            tripID,
		CooperativaID:     p.CooperativaID,
		DriverID:          p.DriverID,
		BusID:             slot.BusID,
		SlotID:            slot.ID,
		NextSlotID:        next.ID,
		TerminalOrigin:    p.TerminalOrigin,
		TerminalDestino:   p.TerminalDestino,
		Date:              model.DateOf(p.Date),
		Departure:         p.Departure,
		EstimatedArrival:  p.EstimatedArrival,
		DurationMin:       durMin,
		Class:             class,
		DistanceKm:        p.DistanceKm,
		RestUntil:         next.AvailableFrom,
		DriverExceptional: rec.IsExceptionalDay,
		CommittedAt:       time.Now(),
	}
	m.mu.Lock()
	m.committed[tripID] = &committedAssignment{asn: asn}
	m.mu.Unlock()
	return asn, nil
}

// resolveSlot picks the bus slot for the proposal: the explicit bus when
// given, otherwise the rotation cycle's nominal bus when it is available,
// otherwise the earliest available bus at the origin terminal.
func (m *AssignmentManager) resolveSlot(p model.Proposal) (model.BusAvailabilitySlot, error) {
	slots := m.tracker.FindAvailable(p.CooperativaID, p.TerminalOrigin, p.Date, p.Departure)

	if p.BusID != "" {
		for _, s := range slots {
			if s.BusID == p.BusID {
				return s, nil
			}
		}
		return model.BusAvailabilitySlot{}, m.noBus(p)
	}

	if cyc, ok := m.cycle(p.CooperativaID); ok {
		var nominal string
		if p.Order > 0 {
			nominal, _ = cyc.DefaultBusFor(p.Date, p.Order)
		} else if e, found := cyc.EntryFor(p.Date, p.TerminalOrigin, p.Departure); found {
			nominal = e.BusID
		}
		if nominal != "" {
			for _, s := range slots {
				if s.BusID == nominal {
					return s, nil
				}
			}
			m.logger.Debugf("rotation bus %s unavailable at %s, overriding", nominal, p.TerminalOrigin)
		}
	}

	if len(slots) > 0 {
		return slots[0], nil
	}
	return model.BusAvailabilitySlot{}, m.noBus(p)
}

func (m *AssignmentManager) noBus(p model.Proposal) error {
	next, has := m.tracker.NextAvailable(p.CooperativaID, p.TerminalOrigin, p.Date)
	return &NoBusError{
		CooperativaID: p.CooperativaID,
		TerminalID:    p.TerminalOrigin,
		Departure:     p.Departure,
		NextAvailable: next,
		HasNext:       has,
	}
}

// reject wraps the violated constraint with advisory data, publishes the
// rejection and writes the audit record.
func (m *AssignmentManager) reject(ctx context.Context, p model.Proposal, cfg CooperativeConfig, cause error) error {
	proposalsTotal.WithLabelValues("rejected").Inc()
	advice := Advice{}
	advice.NextBusAvailable, advice.HasNextBus = m.tracker.NextAvailable(p.CooperativaID, p.TerminalOrigin, p.Date)
	advice.DriverNormalMin, advice.DriverExceptionalMin = m.ledger.RemainingMinutes(p.DriverID, p.Date, cfg.Caps())
	advice.LowOccupancy = m.counter.SuggestLowOccupancySlots(p.TerminalOrigin, p.Date, cfg.OperatingStartHour, cfg.OperatingEndHour, 3)

	reason := RejectionReason(cause)
	m.logger.Warnf("rejected proposal for %s driver %s at %s: %v", p.CooperativaID, p.DriverID, p.Departure.Format("15:04"), cause)
	if m.bus != nil {
		m.bus.Publish(events.AssignmentRejected{Proposal: p, Err: cause, Time: time.Now()})
	}
	m.appendLog(ctx, logging.LogRecord{
		Timestamp:     time.Now(),
		Action:        logging.ActionReject,
		CooperativaID: p.CooperativaID,
		Reason:        reason,
		Proposal:      p,
	})
	return &Rejection{Err: cause, Advice: advice}
}

// CancelAssignment releases everything a committed assignment holds, in the
// reverse order of the commit. Cancelling an unknown or already-cancelled
// trip is a no-op.
func (m *AssignmentManager) CancelAssignment(ctx context.Context, tripID string) error {
	m.mu.Lock()
	ca, ok := m.committed[tripID]
	if !ok || ca.cancelled {
		m.mu.Unlock()
		return nil
	}
	ca.cancelled = true
	asn := ca.asn
	m.mu.Unlock()

	cfg := m.configs.Get(asn.CooperativaID)
	m.counter.Release(asn.TerminalDestino, asn.EstimatedArrival, model.HourSlotOf(asn.EstimatedArrival))
	m.counter.Release(asn.TerminalOrigin, asn.Date, model.HourSlotOf(asn.Departure))
	m.ledger.Release(asn.DriverID, asn.Date, asn.DurationMin, asn.DistanceKm, cfg.Caps())
	m.tracker.Release(asn.SlotID, tripID)
	m.tracker.Void(asn.NextSlotID)
	activeAssignments.Dec()

	m.logger.Infof("cancelled trip %s", tripID)
	if m.bus != nil {
		m.bus.Publish(events.AssignmentCancelled{TripID: tripID, CooperativaID: asn.CooperativaID, Time: time.Now()})
	}
	m.appendLog(ctx, logging.LogRecord{
		Timestamp:     time.Now(),
		Action:        logging.ActionCancel,
		TripID:        tripID,
		CooperativaID: asn.CooperativaID,
	})
	return nil
}

// Assignment returns the committed assignment for the trip, if any.
func (m *AssignmentManager) Assignment(tripID string) (model.Assignment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ca, ok := m.committed[tripID]
	if !ok || ca.cancelled {
		return model.Assignment{}, false
	}
	return ca.asn, true
}

// QueryDriverBudget returns the driver's remaining minutes under both caps and
// the exceptional days already used in the week of date.
func (m *AssignmentManager) QueryDriverBudget(coopID, driverID string, date time.Time) DriverBudget {
	cfg := m.configs.Get(coopID)
	normal, exceptional := m.ledger.RemainingMinutes(driverID, date, cfg.Caps())
	return DriverBudget{
		NormalRemainingMin:        normal,
		ExceptionalRemainingMin:   exceptional,
		WeeklyExceptionalDaysUsed: m.ledger.WeeklyExceptionalDaysUsed(driverID, model.WeekStart(date)),
	}
}

// QueryTerminalSuggestions returns the least occupied hour slots of the
// terminal inside the cooperative's operating window.
func (m *AssignmentManager) QueryTerminalSuggestions(coopID, terminalID string, date time.Time, topN int) []model.TerminalOccupancyCell {
	cfg := m.configs.Get(coopID)
	return m.counter.SuggestLowOccupancySlots(terminalID, date, cfg.OperatingStartHour, cfg.OperatingEndHour, topN)
}

func (m *AssignmentManager) cycle(coopID string) (rotation.Cycle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cycles[coopID]
	return c, ok
}

func (m *AssignmentManager) routeCatalog() RouteCatalog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.routes
}

func (m *AssignmentManager) appendLog(ctx context.Context, rec logging.LogRecord) {
	m.mu.Lock()
	store := m.store
	m.mu.Unlock()
	if store == nil {
		return
	}
	if err := store.Append(ctx, rec); err != nil {
		m.logger.Errorf("audit log error: %v", err)
	}
}

func (m *AssignmentManager) recordCommitMetrics(asn model.Assignment, class model.TripClass, attempts int, latency time.Duration) {
	if m.metrics == nil {
		return
	}
	res := []coremetrics.AssignmentResult{{
		TripID:          asn.TripID,
		CooperativaID:   asn.CooperativaID,
		DriverID:        asn.DriverID,
		BusID:           asn.BusID,
		TerminalOrigin:  asn.TerminalOrigin,
		TerminalDestino: asn.TerminalDestino,
		Class:           class,
		DurationMin:     asn.DurationMin,
		DistanceKm:      asn.DistanceKm,
		Exceptional:     asn.DriverExceptional,
		CommittedAt:     asn.CommittedAt,
	}}
	if err := m.metrics.RecordAssignmentResult(res); err != nil {
		m.logger.Errorf("metrics error: %v", err)
	}
	if lr, ok := m.metrics.(coremetrics.LatencyRecorder); ok {
		if err := lr.RecordCommitLatency(coremetrics.CommitLatency{
			CooperativaID: asn.CooperativaID,
			Class:         class,
			Attempts:      attempts,
			Latency:       latency,
		}); err != nil {
			m.logger.Errorf("latency metrics error: %v", err)
		}
	}
}
