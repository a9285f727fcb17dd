package cmd

import (
	"fmt"

	"pbb/internal/cli"
	"pbb/internal/model"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Full analysis summary with recommendations",
	RunE:  runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	res, err := runPipeline(cmd)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("BUDGET ANALYSIS"))
	fmt.Println()

	rows := [][]string{
		{"Programs", cli.FormatNumber(int64(res.Summary.ProgramCount))},
		{"Total Budget", cli.FormatMoney(res.Summary.TotalBudget)},
		{"Predicted Cost", cli.FormatMoney(res.Summary.TotalPredictedCost)},
		{"Variance", cli.FormatSignedMoney(res.Summary.TotalVariance)},
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	if len(res.Recommendations) > 0 {
		fmt.Println()
		fmt.Print(cli.RenderTable(recommendationTable(res.Recommendations)))
	}

	printNotes(res)
	return nil
}

func recommendationTable(recs []model.Recommendation) cli.Table {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{
			cli.FormatProgram(r.ProgramKey),
			cli.FormatAction(r.Action),
			cli.FormatSignedMoney(r.DeltaAmount),
			cli.FormatPercent(r.Confidence),
		})
	}
	return cli.Table{
		Title:   "Recommendations",
		Headers: []string{"Program", "Action", "Delta", "Confidence"},
		Rows:    rows,
	}
}

func printNotes(res *model.AnalysisResult) {
	if len(res.Warnings) > 0 {
		fmt.Println()
		for _, w := range res.Warnings {
			fmt.Println("  " + cli.RenderWarning(w.Message))
		}
	}
	if len(res.Diagnostics) > 0 {
		fmt.Println()
		for _, d := range res.Diagnostics {
			fmt.Println("  " + cli.RenderDiagnostic(d))
		}
	}
}
