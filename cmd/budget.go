package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/flotacoop/fleetcore/app"
	"github.com/flotacoop/fleetcore/config"
	"github.com/flotacoop/fleetcore/infra/logger"
)

var budgetFlags struct {
	coop   string
	driver string
	date   string
}

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Show a driver's remaining working-hour budget",
	RunE:  runBudget,
}

func init() {
	budgetCmd.Flags().StringVar(&budgetFlags.coop, "coop", "coop-test", "cooperative id")
	budgetCmd.Flags().StringVar(&budgetFlags.driver, "driver", "", "driver id")
	budgetCmd.Flags().StringVar(&budgetFlags.date, "date", "", "date (2006-01-02), defaults to today")
	_ = budgetCmd.MarkFlagRequired("driver")
	rootCmd.AddCommand(budgetCmd)
}

func runBudget(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New("budget-command")
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logg.Errorf("service close: %v", err)
		}
	}()

	date := time.Now().UTC()
	if budgetFlags.date != "" {
		date, err = time.Parse("2006-01-02", budgetFlags.date)
		if err != nil {
			return fmt.Errorf("parse date: %w", err)
		}
	}
	b := svc.Manager.QueryDriverBudget(budgetFlags.coop, budgetFlags.driver, date)
	fmt.Printf("driver %s on %s: %d min normal, %d min exceptional, %d exceptional days used this week\n",
		budgetFlags.driver, date.Format("2006-01-02"),
		b.NormalRemainingMin, b.ExceptionalRemainingMin, b.WeeklyExceptionalDaysUsed)
	return nil
}
