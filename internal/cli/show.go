package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"coldwatch/internal/app"
)

var (
	showDevice   string
	showLimit    int
	showReadings bool
	showActive   bool
	showStats    bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display a device's recent alerts and readings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		opts := app.ShowOptions{
			DeviceID:   showDevice,
			Limit:      showLimit,
			Readings:   showReadings,
			ActiveOnly: showActive,
			Stats:      showStats,
		}

		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().StringVar(&showDevice, "device", "", "Device identifier")
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of rows to display")
	showCmd.Flags().BoolVar(&showReadings, "readings", false, "Also display recent readings")
	showCmd.Flags().BoolVar(&showActive, "active", false, "Only display unresolved alerts")
	showCmd.Flags().BoolVar(&showStats, "stats", false, "Also display aggregate alert statistics")
}
