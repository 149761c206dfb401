package cli

import (
	"github.com/spf13/cobra"

	"coldwatch/internal/app"
)

var (
	seedDevice string
	seedHours  int
	seedSeed   int64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate a device with synthetic temperature history",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.SeedOptions{
			DeviceID: seedDevice,
			Hours:    seedHours,
			Seed:     seedSeed,
		}
		return getApp().Seed(cmd.Context(), opts)
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedDevice, "device", "", "Device identifier")
	seedCmd.Flags().IntVar(&seedHours, "hours", 24, "Hours of history to generate")
	seedCmd.Flags().Int64Var(&seedSeed, "seed", 42, "Random seed for reproducible runs")
}
