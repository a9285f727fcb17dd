// Package config loads and persists pbb configuration and the unit-cost
// reference table.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
)

// Config holds all pbb configuration as stored on disk.
type Config struct {
	Analysis   AnalysisConfig   `toml:"analysis"`
	Reference  ReferenceConfig  `toml:"reference"`
	Benchmark  BenchmarkConfig  `toml:"benchmark"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// AnalysisConfig holds the tunable optimization parameters.
type AnalysisConfig struct {
	// VarianceToleranceFraction is the hold band: programs whose
	// |variance| is within this fraction of their allocated budget are
	// left untouched.
	VarianceToleranceFraction float64 `toml:"variance_tolerance_fraction"`
	// MaxShiftFraction caps any donor's total outflow at this fraction
	// of its allocated budget.
	MaxShiftFraction float64 `toml:"max_shift_fraction"`
	// TotalBudgetDelta is the requested overall budget change. Zero
	// means budget-neutral reallocation.
	TotalBudgetDelta float64 `toml:"total_budget_delta"`
}

// ReferenceConfig holds the unit-cost reference sources.
type ReferenceConfig struct {
	// UnitCosts maps role name to annual unit cost.
	UnitCosts map[string]float64 `toml:"unit_costs,omitempty"`
	// File optionally points at a CSV of role,cost pairs merged over
	// the inline map.
	File string `toml:"file,omitempty"`
}

// BenchmarkConfig holds remote benchmark service settings.
type BenchmarkConfig struct {
	BaseURL string `toml:"base_url,omitempty"`
	APIKey  string `toml:"api_key,omitempty"`
}

// AppearanceConfig holds theme settings for the dashboard.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Analysis: AnalysisConfig{
			VarianceToleranceFraction: 0.05,
			MaxShiftFraction:          0.20,
			TotalBudgetDelta:          0,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pbb")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "pbb")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "pbb")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "pbb")
}

// HistoryPath returns the full path to the run history database.
func HistoryPath() string {
	return filepath.Join(DataDir(), "history.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// GetBenchmarkAPIKey returns the API key from env var or config, in that order.
func GetBenchmarkAPIKey(cfg Config) string {
	if key := os.Getenv("PBB_BENCHMARK_KEY"); key != "" {
		return key
	}
	return cfg.Benchmark.APIKey
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// Analysis is the immutable parameter snapshot handed to an analysis
// run. Concurrent runs may share one value; nothing in the pipeline
// mutates it.
type Analysis struct {
	Tolerance  decimal.Decimal
	MaxShift   decimal.Decimal
	TotalDelta decimal.Decimal
	Costs      *CostTable
}

// DefaultAnalysis returns an Analysis snapshot with the default
// parameters and an empty cost table.
func DefaultAnalysis() Analysis {
	a, _ := AnalysisParams(DefaultConfig())
	return a
}

// AnalysisParams converts the on-disk analysis section plus the resolved
// reference table into an immutable snapshot for a run.
func AnalysisParams(cfg Config) (Analysis, error) {
	costs, err := ResolveCostTable(cfg.Reference)
	if err != nil {
		return Analysis{}, err
	}
	return Analysis{
		Tolerance:  decimal.NewFromFloat(cfg.Analysis.VarianceToleranceFraction),
		MaxShift:   decimal.NewFromFloat(cfg.Analysis.MaxShiftFraction),
		TotalDelta: decimal.NewFromFloat(cfg.Analysis.TotalBudgetDelta),
		Costs:      costs,
	}, nil
}
