package cmd

import (
	"fmt"
	"os"

	"pbb/internal/config"
	"pbb/internal/model"
	"pbb/internal/pipeline"
	"pbb/internal/source"
	"pbb/internal/store"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	flagPositions  string
	flagBudgets    string
	flagCostsFile  string
	flagTolerance  float64
	flagMaxShift   float64
	flagTotalDelta float64
	flagLabel      string
	flagNoHistory  bool
	flagQuiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "pbb",
	Short: "Performance-based budgeting analysis CLI",
	Long:  "Analyze positions and department budgets: program costs, variances, and reallocation recommendations.",
	RunE:  runAnalyze,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagPositions, "positions", "p", "", "Positions table (CSV or XLSX)")
	rootCmd.PersistentFlags().StringVarP(&flagBudgets, "budgets", "b", "", "Department budgets table (CSV or XLSX)")
	rootCmd.PersistentFlags().StringVarP(&flagCostsFile, "costs", "c", "", "Reference unit-cost CSV (overrides config)")
	rootCmd.PersistentFlags().Float64Var(&flagTolerance, "tolerance", -1, "Hold band as a fraction of allocated budget")
	rootCmd.PersistentFlags().Float64Var(&flagMaxShift, "max-shift", -1, "Donor outflow cap as a fraction of allocated budget")
	rootCmd.PersistentFlags().Float64Var(&flagTotalDelta, "total-delta", 0, "Overall budget change to distribute (0 = neutral)")
	rootCmd.PersistentFlags().StringVarP(&flagLabel, "label", "l", "", "Label to store with this run")
	rootCmd.PersistentFlags().BoolVar(&flagNoHistory, "no-history", false, "Skip saving the run to history")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

// loadInputs reads the two required input tables.
func loadInputs() (positions, budgets *source.Table, err error) {
	if flagPositions == "" || flagBudgets == "" {
		return nil, nil, fmt.Errorf("both --positions and --budgets are required")
	}

	positions, err = source.ReadTableFile(flagPositions)
	if err != nil {
		return nil, nil, err
	}
	budgets, err = source.ReadTableFile(flagBudgets)
	if err != nil {
		return nil, nil, err
	}
	return positions, budgets, nil
}

// analysisParams builds the run parameters from config, then applies
// any flag overrides.
func analysisParams(cmd *cobra.Command) (config.Analysis, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Analysis{}, err
	}
	if flagCostsFile != "" {
		cfg.Reference.File = flagCostsFile
	}

	params, err := config.AnalysisParams(cfg)
	if err != nil {
		return config.Analysis{}, err
	}

	if flagTolerance >= 0 {
		params.Tolerance = decimal.NewFromFloat(flagTolerance)
	}
	if flagMaxShift >= 0 {
		params.MaxShift = decimal.NewFromFloat(flagMaxShift)
	}
	if cmd.Flags().Changed("total-delta") {
		params.TotalDelta = decimal.NewFromFloat(flagTotalDelta)
	}
	return params, nil
}

// runPipeline is the shared analysis path used by all reporting
// commands: load inputs, analyze, optionally persist.
func runPipeline(cmd *cobra.Command) (*model.AnalysisResult, error) {
	positions, budgets, err := loadInputs()
	if err != nil {
		return nil, err
	}

	params, err := analysisParams(cmd)
	if err != nil {
		return nil, err
	}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Analyzing %s + %s...\n", positions.Name, budgets.Name)
	}

	res, err := pipeline.Analyze(positions, budgets, params)
	if err != nil {
		return nil, err
	}

	if !flagNoHistory {
		saveToHistory(res, positions.Name, budgets.Name)
	}
	return res, nil
}

// saveToHistory persists the run; failures are reported but never fail
// the command.
func saveToHistory(res *model.AnalysisResult, positionsFile, budgetsFile string) {
	history, err := store.Open(config.HistoryPath())
	if err != nil {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  History unavailable: %v\n", err)
		}
		return
	}
	defer func() { _ = history.Close() }()

	if _, err := history.SaveRun(flagLabel, positionsFile, budgetsFile, res); err != nil {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Could not save run: %v\n", err)
		}
	}
}
