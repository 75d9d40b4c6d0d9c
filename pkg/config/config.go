package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values can use human-readable forms
// like "2h30m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// FleetConfig tunes truck capacity and shipment timing
type FleetConfig struct {
	TruckCapacity        int64    `yaml:"truck_capacity"`
	TravelTimeMin        Duration `yaml:"travel_time_min"`
	TravelTimeMax        Duration `yaml:"travel_time_max"`
	UnloadTimeMin        Duration `yaml:"unload_time_min"`
	UnloadTimeMax        Duration `yaml:"unload_time_max"`
	SplitDepartureOffset Duration `yaml:"split_departure_offset"`
}

// DisruptionConfig tunes the supply-chain disruption model
type DisruptionConfig struct {
	DailyStartProbability  float64 `yaml:"daily_start_probability"`
	BaseResolveProbability float64 `yaml:"base_resolve_probability"`
	MaxAffectedProducts    int     `yaml:"max_affected_products"`
}

// LedgerConfig tunes reorder evaluation
type LedgerConfig struct {
	ReorderTargetMinMultiple float64 `yaml:"reorder_target_min_multiple"`
	ReorderTargetMaxMultiple float64 `yaml:"reorder_target_max_multiple"`
}

// SeedingConfig sets opening inventory balances at run start
type SeedingConfig struct {
	DCOpeningStock    int64 `yaml:"dc_opening_stock"`
	StoreOpeningStock int64 `yaml:"store_opening_stock"`
}

// Config holds all simulation parameters for a generation run
type Config struct {
	Seed       int64            `yaml:"seed"`
	Fleet      FleetConfig      `yaml:"fleet"`
	Disruption DisruptionConfig `yaml:"disruption"`
	Ledger     LedgerConfig     `yaml:"ledger"`
	Seeding    SeedingConfig    `yaml:"seeding"`
	// DailyReceivingUnits is the base DC receiving volume per product per
	// day before disruption scaling.
	DailyReceivingUnits int64 `yaml:"daily_receiving_units"`
	// ReturnRate is the fraction of the previous day's sold units returned.
	ReturnRate float64 `yaml:"return_rate"`
}

// Default returns the standard simulation configuration
func Default() *Config {
	return &Config{
		Seed: 1,
		Fleet: FleetConfig{
			TruckCapacity:        15000,
			TravelTimeMin:        Duration(2 * time.Hour),
			TravelTimeMax:        Duration(6 * time.Hour),
			UnloadTimeMin:        Duration(30 * time.Minute),
			UnloadTimeMax:        Duration(2 * time.Hour),
			SplitDepartureOffset: Duration(30 * time.Minute),
		},
		Disruption: DisruptionConfig{
			DailyStartProbability:  0.02,
			BaseResolveProbability: 0.70,
			MaxAffectedProducts:    10,
		},
		Ledger: LedgerConfig{
			ReorderTargetMinMultiple: 2.0,
			ReorderTargetMaxMultiple: 4.0,
		},
		Seeding: SeedingConfig{
			DCOpeningStock:    5000,
			StoreOpeningStock: 200,
		},
		DailyReceivingUnits: 1000,
		ReturnRate:          0.02,
	}
}

// Load reads a YAML config file, applying defaults for absent fields
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations that would make a run meaningless
func (c *Config) Validate() error {
	if c.Fleet.TruckCapacity <= 0 {
		return fmt.Errorf("truck capacity must be positive, got %d", c.Fleet.TruckCapacity)
	}
	if c.Fleet.TravelTimeMin <= 0 || c.Fleet.TravelTimeMax < c.Fleet.TravelTimeMin {
		return fmt.Errorf("invalid travel time range [%s, %s]", c.Fleet.TravelTimeMin, c.Fleet.TravelTimeMax)
	}
	if c.Disruption.DailyStartProbability < 0 || c.Disruption.DailyStartProbability > 1 {
		return fmt.Errorf("daily start probability must be in [0, 1], got %f", c.Disruption.DailyStartProbability)
	}
	if c.Ledger.ReorderTargetMinMultiple <= 0 ||
		c.Ledger.ReorderTargetMaxMultiple < c.Ledger.ReorderTargetMinMultiple {
		return fmt.Errorf("invalid reorder target range [%f, %f]",
			c.Ledger.ReorderTargetMinMultiple, c.Ledger.ReorderTargetMaxMultiple)
	}
	if c.ReturnRate < 0 || c.ReturnRate > 1 {
		return fmt.Errorf("return rate must be in [0, 1], got %f", c.ReturnRate)
	}
	return nil
}
