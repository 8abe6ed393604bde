package schedule

import (
	"fmt"

	"github.com/flotacoop/fleetcore/core/hours"
	"github.com/flotacoop/fleetcore/core/model"
)

// CooperativeConfig holds the scheduling constraints of one cooperative. It is
// read-only during validation; updates replace the whole value.
// MaxExceptionalDaysPerWeek is a pointer so an explicit zero (no exceptional
// days allowed) survives defaulting.
type CooperativeConfig struct {
	CooperativaID              string  `json:"cooperativa_id" yaml:"cooperativa_id"`
	NormalDailyCapMin          int     `json:"normal_daily_cap_min" yaml:"normal_daily_cap_min"`
	ExceptionalDailyCapMin     int     `json:"exceptional_daily_cap_min" yaml:"exceptional_daily_cap_min"`
	MaxExceptionalDaysPerWeek  *int    `json:"max_exceptional_days_per_week" yaml:"max_exceptional_days_per_week"`
	RestInterprovincialMin     int     `json:"rest_interprovincial_min" yaml:"rest_interprovincial_min"`
	RestIntraprovincialMin     int     `json:"rest_intraprovincial_min" yaml:"rest_intraprovincial_min"`
	InterprovincialThresholdKm float64 `json:"interprovincial_threshold_km" yaml:"interprovincial_threshold_km"`
	OperatingStartHour         int     `json:"operating_start_hour" yaml:"operating_start_hour"`
	OperatingEndHour           int     `json:"operating_end_hour" yaml:"operating_end_hour"`
}

// DefaultConfig returns the regulatory defaults applied when a cooperative has
// no configuration of its own.
func DefaultConfig() CooperativeConfig {
	quota := 2
	return CooperativeConfig{
		NormalDailyCapMin:          480,
		ExceptionalDailyCapMin:     600,
		MaxExceptionalDaysPerWeek:  &quota,
		RestInterprovincialMin:     120,
		RestIntraprovincialMin:     45,
		InterprovincialThresholdKm: 100,
		OperatingStartHour:         5,
		OperatingEndHour:           23,
	}
}

// SetDefaults fills unset fields with the regulatory defaults.
func (c *CooperativeConfig) SetDefaults() {
	def := DefaultConfig()
	if c.NormalDailyCapMin == 0 {
		c.NormalDailyCapMin = def.NormalDailyCapMin
	}
	if c.ExceptionalDailyCapMin == 0 {
		c.ExceptionalDailyCapMin = def.ExceptionalDailyCapMin
	}
	if c.MaxExceptionalDaysPerWeek == nil {
		quota := *def.MaxExceptionalDaysPerWeek
		c.MaxExceptionalDaysPerWeek = &quota
	}
	if c.RestInterprovincialMin == 0 {
		c.RestInterprovincialMin = def.RestInterprovincialMin
	}
	if c.RestIntraprovincialMin == 0 {
		c.RestIntraprovincialMin = def.RestIntraprovincialMin
	}
	if c.InterprovincialThresholdKm == 0 {
		c.InterprovincialThresholdKm = def.InterprovincialThresholdKm
	}
	if c.OperatingStartHour == 0 && c.OperatingEndHour == 0 {
		c.OperatingStartHour = def.OperatingStartHour
		c.OperatingEndHour = def.OperatingEndHour
	}
}

// RestMinutes returns the mandatory bus rest after a trip of the given class.
func (c CooperativeConfig) RestMinutes(class model.TripClass) int {
	if class == model.Interprovincial {
		return c.RestInterprovincialMin
	}
	return c.RestIntraprovincialMin
}

// Caps converts the config to the ledger's cap bundle. An unset quota pointer
// counts as zero exceptional days, never as the default.
func (c CooperativeConfig) Caps() hours.Caps {
	quota := 0
	if c.MaxExceptionalDaysPerWeek != nil {
		quota = *c.MaxExceptionalDaysPerWeek
	}
	return hours.Caps{
		NormalDailyMin:            c.NormalDailyCapMin,
		ExceptionalDailyMin:       c.ExceptionalDailyCapMin,
		MaxExceptionalDaysPerWeek: quota,
	}
}

// Validate checks the cap ordering and the operating window shape.
func (c CooperativeConfig) Validate() error {
	if c.ExceptionalDailyCapMin < c.NormalDailyCapMin {
		return fmt.Errorf("cooperative %s: exceptional cap %d below normal cap %d",
			c.CooperativaID, c.ExceptionalDailyCapMin, c.NormalDailyCapMin)
	}
	if c.MaxExceptionalDaysPerWeek != nil && *c.MaxExceptionalDaysPerWeek < 0 {
		return fmt.Errorf("cooperative %s: max_exceptional_days_per_week must not be negative", c.CooperativaID)
	}
	if c.OperatingStartHour < 0 || c.OperatingEndHour > 23 {
		return fmt.Errorf("cooperative %s: operating hours must be within 0-23", c.CooperativaID)
	}
	if c.OperatingEndHour < c.OperatingStartHour {
		return fmt.Errorf("cooperative %s: operating_end_hour %d before operating_start_hour %d",
			c.CooperativaID, c.OperatingEndHour, c.OperatingStartHour)
	}
	return nil
}

// InWindow reports whether the hour falls in the operating window.
func (c CooperativeConfig) InWindow(hour int) bool {
	return hour >= c.OperatingStartHour && hour <= c.OperatingEndHour
}

// ConfigProvider resolves the constraints of a cooperative. Lookups never
// fail: unknown cooperatives run on the defaults.
type ConfigProvider interface {
	Get(coopID string) CooperativeConfig
}

// StaticConfigProvider serves per-cooperative configuration loaded at startup.
type StaticConfigProvider struct {
	configs map[string]CooperativeConfig
}

// NewStaticConfigProvider builds a provider from the given configurations,
// filling unset fields with defaults.
func NewStaticConfigProvider(cfgs ...CooperativeConfig) *StaticConfigProvider {
	p := &StaticConfigProvider{configs: make(map[string]CooperativeConfig, len(cfgs))}
	for _, c := range cfgs {
		c.SetDefaults()
		p.configs[c.CooperativaID] = c
	}
	return p
}

// Get returns the cooperative's configuration, or the defaults when absent.
func (p *StaticConfigProvider) Get(coopID string) CooperativeConfig {
	if c, ok := p.configs[coopID]; ok {
		return c
	}
	c := DefaultConfig()
	c.CooperativaID = coopID
	return c
}
