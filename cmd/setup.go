package cmd

import (
	"fmt"
	"strconv"

	"pbb/internal/config"
	"pbb/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg, _ := config.Load()

	tolerance := formatFraction(cfg.Analysis.VarianceToleranceFraction)
	maxShift := formatFraction(cfg.Analysis.MaxShiftFraction)
	costsFile := cfg.Reference.File
	benchURL := cfg.Benchmark.BaseURL
	benchKey := cfg.Benchmark.APIKey
	themeName := cfg.Appearance.Theme

	themeOptions := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOptions = append(themeOptions, huh.NewOption(t.Name, t.Name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Variance tolerance").
				Description("Hold band as a fraction of allocated budget, e.g. 0.05").
				Validate(validateFraction).
				Value(&tolerance),
			huh.NewInput().
				Title("Max shift").
				Description("Donor outflow cap as a fraction of allocated budget, e.g. 0.20").
				Validate(validateFraction).
				Value(&maxShift),
			huh.NewInput().
				Title("Reference cost CSV").
				Description("Optional role,cost file merged over inline unit costs").
				Value(&costsFile),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Benchmark API base URL").
				Description("Optional salary survey endpoint for reference costs").
				Value(&benchURL),
			huh.NewInput().
				Title("Benchmark API key").
				EchoMode(huh.EchoModePassword).
				Value(&benchKey),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOptions...).
				Value(&themeName),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Analysis.VarianceToleranceFraction, _ = strconv.ParseFloat(tolerance, 64)
	cfg.Analysis.MaxShiftFraction, _ = strconv.ParseFloat(maxShift, 64)
	cfg.Reference.File = costsFile
	cfg.Benchmark.BaseURL = benchURL
	cfg.Benchmark.APIKey = benchKey
	cfg.Appearance.Theme = themeName

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `pbb setup` anytime to reconfigure.")
	return nil
}

func formatFraction(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func validateFraction(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number")
	}
	if f < 0 || f > 1 {
		return fmt.Errorf("must be between 0 and 1")
	}
	return nil
}
