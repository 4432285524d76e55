package commands

import (
	"context"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(onceCmd)
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Runs a single scrape cycle and exits.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(true)
		if err != nil {
			return err
		}
		defer rt.Close()

		return runOnce(cmd.Context(), rt)
	},
}

func runOnce(ctx context.Context, rt *runtime) error {
	_, err := rt.orchestrator().RunOnce(ctx)
	return err
}
