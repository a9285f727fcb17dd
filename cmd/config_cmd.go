// Package cmd implements the pbb CLI commands.
package cmd

import (
	"fmt"
	"sort"

	"pbb/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [Analysis]")
	fmt.Printf("    Variance tolerance: %.2f\n", cfg.Analysis.VarianceToleranceFraction)
	fmt.Printf("    Max shift:          %.2f\n", cfg.Analysis.MaxShiftFraction)
	fmt.Printf("    Total budget delta: %.2f\n", cfg.Analysis.TotalBudgetDelta)
	fmt.Println()

	fmt.Println("  [Reference]")
	if len(cfg.Reference.UnitCosts) > 0 {
		roles := make([]string, 0, len(cfg.Reference.UnitCosts))
		for role := range cfg.Reference.UnitCosts {
			roles = append(roles, role)
		}
		sort.Strings(roles)
		for _, role := range roles {
			fmt.Printf("    %-24s $%.0f\n", role, cfg.Reference.UnitCosts[role])
		}
	} else {
		fmt.Println("    Unit costs: none inline")
	}
	if cfg.Reference.File != "" {
		fmt.Printf("    Cost file: %s\n", cfg.Reference.File)
	}
	fmt.Println()

	fmt.Println("  [Benchmark]")
	if cfg.Benchmark.BaseURL != "" {
		fmt.Printf("    Base URL: %s\n", cfg.Benchmark.BaseURL)
	} else {
		fmt.Println("    Base URL: not configured")
	}
	apiKey := config.GetBenchmarkAPIKey(cfg)
	if apiKey != "" {
		fmt.Printf("    API key: %s\n", maskAPIKey(apiKey))
	} else {
		fmt.Println("    API key: not configured")
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Printf("  History database: %s\n", config.HistoryPath())
	fmt.Println()
	fmt.Println("  Run `pbb setup` to reconfigure.")
	return nil
}

func maskAPIKey(key string) string {
	if len(key) > 16 {
		return key[:8] + "..." + key[len(key)-4:]
	}
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return "****"
}
