package cmd

import (
	"fmt"

	"pbb/internal/cli"

	"github.com/spf13/cobra"
)

var programsCmd = &cobra.Command{
	Use:   "programs",
	Short: "Per-program budgets, predicted costs, and variances",
	RunE:  runPrograms,
}

func init() {
	rootCmd.AddCommand(programsCmd)
}

func runPrograms(cmd *cobra.Command, _ []string) error {
	res, err := runPipeline(cmd)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(res.Programs))
	for _, p := range res.Programs {
		rows = append(rows, []string{
			cli.FormatProgram(p.Key),
			cli.FormatNumber(int64(p.PositionCount)),
			cli.FormatMoney(p.AllocatedBudget),
			cli.FormatMoney(p.PredictedCost),
			cli.FormatSignedMoney(p.Variance),
			cli.FormatVariancePercent(p.Variance, p.AllocatedBudget),
			cli.FormatBasis(p.EstimationBasis),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Programs",
		Headers: []string{"Program", "Positions", "Budget", "Predicted", "Variance", "Var %", "Basis"},
		Rows:    rows,
	}))

	printNotes(res)
	return nil
}
