package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/flotacoop/fleetcore/core/metrics"
	"github.com/flotacoop/fleetcore/core/model"
	"github.com/flotacoop/fleetcore/core/schedule"
)

// TerminalConfig describes the physical capacity of one terminal.
type TerminalConfig struct {
	Platforms             int `json:"platforms"`
	ThroughputPerPlatform int `json:"throughput_per_platform"`
}

// Config is the root configuration of the service.
type Config struct {
	Cooperatives []schedule.CooperativeConfig `json:"cooperatives"`
	Terminals    map[string]TerminalConfig    `json:"terminals"`
	// Routes maps route references to their distance in kilometers.
	Routes map[string]float64 `json:"routes"`
	// RotationFiles lists rotation cycle definitions to load at startup.
	RotationFiles []string       `json:"rotation_files"`
	Metrics       metrics.Config `json:"metrics"`
	Logging       LoggingConfig  `json:"logging"`
}

// Load reads the configuration from a JSON or YAML file, applies FLEET_*
// environment overrides and fills defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("FLEET_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "fleet_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	for i := range cfg.Cooperatives {
		cfg.Cooperatives[i].SetDefaults()
	}
	cfg.Metrics.SetDefaults()
	cfg.Logging.SetDefaults()
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	for _, coop := range c.Cooperatives {
		if err := coop.Validate(); err != nil {
			return err
		}
	}
	for id, t := range c.Terminals {
		if t.Platforms <= 0 || t.ThroughputPerPlatform <= 0 {
			return fmt.Errorf("terminal %s: platforms and throughput must be positive", id)
		}
	}
	for ref, km := range c.Routes {
		if km <= 0 {
			return fmt.Errorf("route %s: distance must be positive", ref)
		}
	}
	return nil
}

// TerminalCatalog builds the static catalog the occupancy counter consumes.
func (c Config) TerminalCatalog() StaticTerminalCatalog {
	cat := make(StaticTerminalCatalog, len(c.Terminals))
	for id, t := range c.Terminals {
		cat[id] = model.TerminalCapacity{
			Platforms:             t.Platforms,
			ThroughputPerPlatform: t.ThroughputPerPlatform,
		}
	}
	return cat
}

// StaticTerminalCatalog resolves terminal capacities from configuration.
type StaticTerminalCatalog map[string]model.TerminalCapacity

// Capacity returns the terminal's capacity or fails for unknown terminals.
func (c StaticTerminalCatalog) Capacity(terminalID string) (model.TerminalCapacity, error) {
	cap, ok := c[terminalID]
	if !ok {
		return model.TerminalCapacity{}, fmt.Errorf("unknown terminal %s", terminalID)
	}
	return cap, nil
}

// RouteCatalog builds the static catalog used to resolve route distances.
func (c Config) RouteCatalog() StaticRouteCatalog {
	return StaticRouteCatalog(c.Routes)
}

// StaticRouteCatalog resolves route distances from configuration.
type StaticRouteCatalog map[string]float64

// DistanceKm returns the route distance or fails for unknown routes.
func (c StaticRouteCatalog) DistanceKm(routeRef string) (float64, error) {
	km, ok := c[routeRef]
	if !ok {
		return 0, fmt.Errorf("unknown route %s", routeRef)
	}
	return km, nil
}
