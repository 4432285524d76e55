package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"tvratings-parser/internal/app"
)

var watchInterval time.Duration

func init() {
	watchCmd.Flags().DurationVarP(&watchInterval, "interval", "i", 0, "pause between cycles (default scheduler.interval_minutes)")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Runs scrape cycles continuously until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(true)
		if err != nil {
			return err
		}
		defer rt.Close()

		interval := watchInterval
		if interval <= 0 {
			interval = rt.cfg.GetSchedulerInterval()
		}
		return runWatch(cmd.Context(), rt, interval)
	},
}

func runWatch(ctx context.Context, rt *runtime, interval time.Duration) error {
	ctx, cancel := app.GracefulShutdown(ctx, rt.logger)
	defer cancel()

	return rt.orchestrator().RunContinuous(ctx, interval)
}
