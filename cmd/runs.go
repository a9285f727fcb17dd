package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"pbb/internal/cli"
	"pbb/internal/config"
	"pbb/internal/store"

	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored analysis runs",
	RunE:  runListRuns,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one stored run as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runShowRun,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored run",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeleteRun,
}

func init() {
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDeleteCmd)
	rootCmd.AddCommand(runsCmd)
}

func openHistory() (*store.History, error) {
	return store.Open(config.HistoryPath())
}

func runListRuns(_ *cobra.Command, _ []string) error {
	history, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = history.Close() }()

	metas, err := history.ListRuns()
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		fmt.Println("\n  No stored runs. Run an analysis first.")
		return nil
	}

	rows := make([][]string, 0, len(metas))
	for _, m := range metas {
		rows = append(rows, []string{
			strconv.FormatInt(m.ID, 10),
			m.CreatedAt.Format("2006-01-02 15:04"),
			m.Label,
			cli.FormatNumber(int64(m.Summary.ProgramCount)),
			cli.FormatMoney(m.Summary.TotalBudget),
			cli.FormatSignedMoney(m.Summary.TotalVariance),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Stored Runs",
		Headers: []string{"ID", "Created", "Label", "Programs", "Budget", "Variance"},
		Rows:    rows,
	}))
	return nil
}

func runShowRun(_ *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("run id must be an integer: %q", args[0])
	}

	history, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = history.Close() }()

	res, _, err := history.LoadRun(id)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func runDeleteRun(_ *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("run id must be an integer: %q", args[0])
	}

	history, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = history.Close() }()

	if err := history.DeleteRun(id); err != nil {
		return err
	}
	fmt.Printf("  Deleted run %d\n", id)
	return nil
}
