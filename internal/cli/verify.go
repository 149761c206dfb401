package cli

import (
	"github.com/spf13/cobra"

	"coldwatch/internal/app"
)

var (
	verifyDevice  string
	verifySubject string
	verifyVerbose bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the integrity of temperature and audit chains",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.VerifyOptions{
			DeviceID:  verifyDevice,
			SubjectID: verifySubject,
			Verbose:   verifyVerbose,
		}
		return getApp().Verify(cmd.Context(), opts)
	},
}

func init() {
	verifyCmd.Flags().StringVar(&verifyDevice, "device", "", "Verify this device's temperature chain")
	verifyCmd.Flags().StringVar(&verifySubject, "subject", "", "Verify this subject's audit chain")
	verifyCmd.Flags().BoolVar(&verifyVerbose, "verbose", false, "Print per-record verification status")
}
