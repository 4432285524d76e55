package commands

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"tvratings-parser/internal/ratings"
)

func init() {
	rootCmd.AddCommand(debugCmd)
}

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Fetches every channel once and prints the raw values without storing them.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(false)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx := cmd.Context()
		if err := rt.scraper.Open(ctx); err != nil {
			return err
		}
		defer rt.scraper.Close()

		raw, err := rt.scraper.FetchAll(ctx)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Channel", "URL", "Rating"})
		for _, ch := range rt.scraper.Catalog() {
			value := "<absent>"
			if v := raw[ch.Code]; v != nil {
				value = ratings.FormatValue(*v)
			}
			t.AppendRow(table.Row{ch.Code, rt.scraper.ChannelURL(ch.Slug), value})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}
