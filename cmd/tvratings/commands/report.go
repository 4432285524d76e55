package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tvratings-parser/internal/ratings"
	"tvratings-parser/internal/report"
)

var reportLast int

func init() {
	reportCmd.Flags().IntVarP(&reportLast, "last", "n", 10, "number of recent records to list (0 lists none)")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Prints the latest ratings, their change and audience share from the CSV store.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(false)
		if err != nil {
			return err
		}
		defer rt.Close()

		records, err := rt.csv.Records()
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", rt.csv.Path(), err)
		}

		summary, err := report.Summarize(records)
		if err != nil {
			return fmt.Errorf("%s: %w", rt.csv.Path(), err)
		}

		var history []ratings.Record
		if reportLast > 0 {
			history = report.Tail(records, reportLast)
		}
		report.Render(os.Stdout, summary, history)
		return nil
	},
}
