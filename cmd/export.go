package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Run the analysis and write the full result as JSON",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	res, err := runPipeline(cmd)
	if err != nil {
		return err
	}

	out := os.Stdout
	if flagOutput != "" {
		f, err := os.Create(flagOutput)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	if flagOutput != "" && !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Wrote %s\n", flagOutput)
	}
	return nil
}
