package cmd

import (
	"context"
	"fmt"
	"time"

	"pbb/internal/benchmark"
	"pbb/internal/cli"
	"pbb/internal/config"

	"github.com/spf13/cobra"
)

var flagSaveBenchmarks bool

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Fetch reference salaries from the configured benchmark API",
	RunE:  runBenchmark,
}

func init() {
	benchmarkCmd.Flags().BoolVar(&flagSaveBenchmarks, "save", false, "Merge fetched benchmarks into the config's unit costs")
	rootCmd.AddCommand(benchmarkCmd)
}

func runBenchmark(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	client := benchmark.NewClient(cfg.Benchmark.BaseURL, config.GetBenchmarkAPIKey(cfg))
	if client == nil {
		return fmt.Errorf("no benchmark API configured; run `pbb setup` first")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	benchmarks, err := client.FetchBenchmarks(ctx)
	if err != nil {
		return err
	}
	if len(benchmarks) == 0 {
		fmt.Println("\n  The benchmark API returned no roles.")
		return nil
	}

	table := benchmark.CostTable(benchmarks)
	rows := make([][]string, 0, table.Len())
	for _, role := range table.Roles() {
		cost, _ := table.Lookup(role)
		rows = append(rows, []string{role, cli.FormatMoney(cost)})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Role Benchmarks",
		Headers: []string{"Role", "Annual Cost"},
		Rows:    rows,
	}))

	if !flagSaveBenchmarks {
		return nil
	}

	if cfg.Reference.UnitCosts == nil {
		cfg.Reference.UnitCosts = make(map[string]float64, table.Len())
	}
	for _, role := range table.Roles() {
		cost, _ := table.Lookup(role)
		f, _ := cost.Float64()
		cfg.Reference.UnitCosts[role] = f
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("  Merged %d roles into %s\n", table.Len(), config.ConfigPath())
	return nil
}
