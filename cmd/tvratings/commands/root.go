package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "tvratings",
	Short: "tvratings collects TV audience ratings into a CSV time series.",
	Long: "tvratings collects TV audience ratings into a CSV time series.\n" +
		"Without a subcommand it runs according to scheduler.mode from the config.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(true)
		if err != nil {
			return err
		}
		defer rt.Close()

		if rt.cfg.Scheduler.Mode == "oneshot" {
			return runOnce(cmd.Context(), rt)
		}
		return runWatch(cmd.Context(), rt, rt.cfg.GetSchedulerInterval())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "path to the YAML config")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
