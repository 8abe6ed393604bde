package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `cooperatives:
  - cooperativa_id: "coop-andina"
    normal_daily_cap_min: 480
    exceptional_daily_cap_min: 600
    interprovincial_threshold_km: 100
terminals:
  term-quito:
    platforms: 2
    throughput_per_platform: 2
  term-guayaquil:
    platforms: 5
    throughput_per_platform: 2
routes:
  quito-guayaquil: 420
metrics:
  prometheus_enabled: true
logging:
  backend: "sqlite"
  path: "audit.db"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"cooperativa_id", cfg.Cooperatives[0].CooperativaID, "coop-andina"},
		{"normal_cap", cfg.Cooperatives[0].NormalDailyCapMin, 480},
		{"defaulted_rest", cfg.Cooperatives[0].RestInterprovincialMin, 120},
		{"defaulted_window", cfg.Cooperatives[0].OperatingStartHour, 5},
		{"platforms", cfg.Terminals["term-quito"].Platforms, 2},
		{"route", cfg.Routes["quito-guayaquil"], 420.0},
		{"prometheus", cfg.Metrics.PrometheusEnabled, true},
		{"prometheus_port_default", cfg.Metrics.PrometheusPort, ":9090"},
		{"logging_backend", cfg.Logging.Backend, "sqlite"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v want %v", c.name, c.got, c.want)
		}
	}

	cat := cfg.TerminalCatalog()
	cap, err := cat.Capacity("term-quito")
	if err != nil {
		t.Fatalf("capacity: %v", err)
	}
	if cap.PerHour() != 4 {
		t.Errorf("per hour: got %d want 4", cap.PerHour())
	}
	if _, err := cat.Capacity("nope"); err == nil {
		t.Error("expected error for unknown terminal")
	}

	routes := cfg.RouteCatalog()
	if km, err := routes.DistanceKm("quito-guayaquil"); err != nil || km != 420 {
		t.Errorf("route distance: got %v, %v", km, err)
	}
}

func TestLoadRejectsBadBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	data := `{"logging": {"backend": "csv"}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestLoadRejectsInvertedOperatingWindow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `cooperatives:
  - cooperativa_id: "coop-a"
    operating_start_hour: 6
    operating_end_hour: 0
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for inverted operating window")
	}
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	if _, err := Load("config.toml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
