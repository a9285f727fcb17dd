package cmd

import (
	"fmt"

	"pbb/internal/cli"
	"pbb/internal/model"

	"github.com/spf13/cobra"
)

var flagShowHolds bool

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Budget reallocation recommendations",
	RunE:  runRecommend,
}

func init() {
	recommendCmd.Flags().BoolVar(&flagShowHolds, "holds", false, "Include hold recommendations")
	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, _ []string) error {
	res, err := runPipeline(cmd)
	if err != nil {
		return err
	}

	recs := res.Recommendations
	if !flagShowHolds {
		filtered := recs[:0:0]
		for _, r := range recs {
			if r.Action != model.ActionHold {
				filtered = append(filtered, r)
			}
		}
		recs = filtered
	}

	if len(recs) == 0 {
		fmt.Println("\n  No reallocations to recommend.")
		printNotes(res)
		return nil
	}

	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{
			cli.FormatProgram(r.ProgramKey),
			cli.FormatAction(r.Action),
			cli.FormatSignedMoney(r.DeltaAmount),
			cli.FormatPercent(r.Confidence),
			r.Rationale,
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Recommendations",
		Headers: []string{"Program", "Action", "Delta", "Confidence", "Rationale"},
		Rows:    rows,
	}))

	printNotes(res)
	return nil
}
