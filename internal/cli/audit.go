package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"coldwatch/internal/app"
)

var (
	auditSubject string
	auditAction  string
	auditDetails string
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Record an action on a subject's audit chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		if auditSubject == "" {
			return errors.New("--subject is required")
		}
		if auditAction == "" {
			return errors.New("--action is required")
		}

		opts := app.AuditOptions{
			SubjectID: auditSubject,
			Action:    auditAction,
			Details:   auditDetails,
		}
		return getApp().Audit(cmd.Context(), opts)
	},
}

func init() {
	auditCmd.Flags().StringVar(&auditSubject, "subject", "", "Subject identifier (operator, uploader)")
	auditCmd.Flags().StringVar(&auditAction, "action", "", "Action name, e.g. csv_upload")
	auditCmd.Flags().StringVar(&auditDetails, "details", "", "Free-form action details")
}
