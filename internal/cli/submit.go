package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"coldwatch/internal/app"
)

var (
	submitDevice      string
	submitTemperature float64
	submitTimestamp   string
	submitVaccineType string
	submitLocation    string
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Commit one temperature reading to a device's chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		if submitDevice == "" {
			return errors.New("--device is required")
		}
		if !cmd.Flags().Changed("temp") {
			return errors.New("--temp is required")
		}

		opts := app.SubmitOptions{
			DeviceID:    submitDevice,
			Temperature: submitTemperature,
			VaccineType: submitVaccineType,
			Location:    submitLocation,
		}

		if submitTimestamp != "" {
			ts, err := time.Parse(time.RFC3339, submitTimestamp)
			if err != nil {
				return fmt.Errorf("invalid --timestamp value: %w", err)
			}
			opts.Timestamp = &ts
		}

		return getApp().Submit(cmd.Context(), opts)
	},
}

func init() {
	submitCmd.Flags().StringVar(&submitDevice, "device", "", "Device identifier")
	submitCmd.Flags().Float64Var(&submitTemperature, "temp", 0, "Temperature in °C")
	submitCmd.Flags().StringVar(&submitTimestamp, "timestamp", "", "Reading timestamp (RFC3339, defaults to now)")
	submitCmd.Flags().StringVar(&submitVaccineType, "vaccine", "", "Vaccine type stored in the unit")
	submitCmd.Flags().StringVar(&submitLocation, "location", "", "Physical location of the unit")
}
