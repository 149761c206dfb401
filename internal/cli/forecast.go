package cli

import (
	"github.com/spf13/cobra"

	"coldwatch/internal/app"
)

var forecastDevice string

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Project a device's temperature over the monitoring horizon",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Forecast(cmd.Context(), app.ForecastOptions{DeviceID: forecastDevice})
	},
}

func init() {
	forecastCmd.Flags().StringVar(&forecastDevice, "device", "", "Device identifier")
}
