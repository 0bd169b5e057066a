package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/law-makers/uniscrape/internal/ui"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a row for every supported institution",
	Long:  `Inserts every supported institution that is not stored yet. Running it again changes nothing.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := GetAppFromCmd(cmd)
		if a == nil {
			return fmt.Errorf("application not initialized")
		}
		seeded, err := a.Seed(cmd.Context())
		if err != nil {
			return err
		}
		for _, inst := range seeded {
			fmt.Printf("%s %-16s %s (%s)\n", ui.Success("✓"), inst.Slug, inst.Name, inst.City)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
