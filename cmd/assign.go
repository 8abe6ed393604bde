package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/flotacoop/fleetcore/app"
	"github.com/flotacoop/fleetcore/config"
	"github.com/flotacoop/fleetcore/core/model"
	"github.com/flotacoop/fleetcore/core/schedule"
	"github.com/flotacoop/fleetcore/infra/logger"
)

var assignFlags struct {
	coop        string
	driver      string
	bus         string
	route       string
	origin      string
	dest        string
	departure   string
	durationMin int
	distanceKm  float64
}

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Validate and commit a test trip proposal",
	RunE:  runAssign,
}

func init() {
	assignCmd.Flags().StringVar(&assignFlags.coop, "coop", "coop-test", "cooperative id")
	assignCmd.Flags().StringVar(&assignFlags.driver, "driver", "drv-test", "driver id")
	assignCmd.Flags().StringVar(&assignFlags.bus, "bus", "bus-test", "bus id")
	assignCmd.Flags().StringVar(&assignFlags.route, "route", "", "route reference")
	assignCmd.Flags().StringVar(&assignFlags.origin, "origin", "", "origin terminal id")
	assignCmd.Flags().StringVar(&assignFlags.dest, "dest", "", "destination terminal id")
	assignCmd.Flags().StringVar(&assignFlags.departure, "departure", "", "departure time (RFC 3339), defaults to one hour from now")
	assignCmd.Flags().IntVar(&assignFlags.durationMin, "duration", 120, "estimated trip duration in minutes")
	assignCmd.Flags().Float64Var(&assignFlags.distanceKm, "distance", 0, "route distance in kilometers")
	rootCmd.AddCommand(assignCmd)
}

func runAssign(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New("assign-command")
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logg.Errorf("service close: %v", err)
		}
	}()

	departure := time.Now().UTC().Add(time.Hour)
	if assignFlags.departure != "" {
		departure, err = time.Parse(time.RFC3339, assignFlags.departure)
		if err != nil {
			return fmt.Errorf("parse departure: %w", err)
		}
	}

	// Make the bus available at the origin so the proposal has a candidate.
	svc.Tracker.RecordArrival(assignFlags.coop, assignFlags.bus, assignFlags.origin, departure.Add(-time.Hour), 0)

	p := model.Proposal{
		CooperativaID:    assignFlags.coop,
		DriverID:         assignFlags.driver,
		BusID:            assignFlags.bus,
		RouteRef:         assignFlags.route,
		TerminalOrigin:   assignFlags.origin,
		TerminalDestino:  assignFlags.dest,
		Date:             departure,
		Departure:        departure,
		EstimatedArrival: departure.Add(time.Duration(assignFlags.durationMin) * time.Minute),
		DistanceKm:       assignFlags.distanceKm,
	}
	asn, err := svc.Manager.ValidateAndAssign(context.Background(), p)
	if err != nil {
		if schedule.IsRejection(err) {
			logg.Warnf("proposal rejected: %v", err)
			return nil
		}
		return err
	}
	fmt.Printf("committed trip %s: bus %s, class %s, rest until %s\n",
		asn.TripID, asn.BusID, asn.Class, asn.RestUntil.Format(time.RFC3339))
	return nil
}
