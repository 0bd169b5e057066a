package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/uniscrape/internal/report"
	"github.com/law-makers/uniscrape/internal/ui"
)

var exportPath string

// coursesCmd represents the courses command
var coursesCmd = &cobra.Command{
	Use:   "courses <institution>",
	Short: "List or export the stored courses of an institution",
	Example: `  # Print a table
  uniscrape courses windesheim

  # Export to CSV or JSON
  uniscrape courses windesheim --output windesheim.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := GetAppFromCmd(cmd)
		if a == nil {
			return fmt.Errorf("application not initialized")
		}
		ctx := cmd.Context()

		inst, err := a.Store.GetInstitution(ctx, args[0])
		if err != nil {
			return err
		}
		courses, err := a.Store.ListCourses(ctx, inst.ID)
		if err != nil {
			return err
		}

		if exportPath == "" {
			report.Courses(os.Stdout, courses)
			return nil
		}
		if err := report.SaveCourses(exportPath, courses); err != nil {
			return err
		}
		log.Info().Str("file", exportPath).Int("courses", len(courses)).Msg("Courses exported")
		fmt.Printf("%s Saved %d courses to %s\n", ui.Success("✓"), len(courses), exportPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(coursesCmd)
	coursesCmd.Flags().StringVarP(&exportPath, "output", "o", "", "Export to a .json or .csv file")
}
