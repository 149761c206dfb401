package cli

import (
	"github.com/spf13/cobra"
)

var resolveID int64

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Mark an alert as handled",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Resolve(cmd.Context(), resolveID)
	},
}

func init() {
	resolveCmd.Flags().Int64Var(&resolveID, "id", 0, "Alert identifier")
}
