package cli

import (
	"github.com/spf13/cobra"

	"coldwatch/internal/app"
)

var (
	simulateDevice string
	simulateHours  int
	simulateSeed   int64
	simulateNotify bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Rehearse the full pipeline against synthetic data, no database needed",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.SimulateOptions{
			DeviceID: simulateDevice,
			Hours:    simulateHours,
			Seed:     simulateSeed,
			Notify:   simulateNotify,
		}
		return getApp().Simulate(cmd.Context(), opts)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateDevice, "device", "sim-device", "Device identifier for the synthetic stream")
	simulateCmd.Flags().IntVar(&simulateHours, "hours", 24, "Hours of synthetic history to generate")
	simulateCmd.Flags().Int64Var(&simulateSeed, "seed", 42, "Random seed for reproducible runs")
	simulateCmd.Flags().BoolVar(&simulateNotify, "notify", false, "Dispatch the resulting alert through the configured channel")
}
