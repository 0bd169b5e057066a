package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/law-makers/uniscrape/internal/report"
)

var statsFormat string

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show every institution with its course count",
	Example: `  uniscrape stats
  uniscrape stats --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := GetAppFromCmd(cmd)
		if a == nil {
			return fmt.Errorf("application not initialized")
		}
		stats, err := a.Store.Stats(cmd.Context())
		if err != nil {
			return err
		}

		switch statsFormat {
		case report.FormatText:
			report.Stats(os.Stdout, stats)
			return nil
		case report.FormatHTML:
			return report.StatsHTML(os.Stdout, stats)
		case report.FormatJSON:
			return report.JSON(os.Stdout, stats)
		}
		return fmt.Errorf("unknown format %q (use text, html or json)", statsFormat)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVarP(&statsFormat, "format", "f", report.FormatText, "Output format: text, html or json")
}
