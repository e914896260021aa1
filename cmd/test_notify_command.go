package main

import (
	"errors"
	"fmt"

	"episode-pulse/notifier"

	"github.com/spf13/cobra"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test email with the configured SMTP settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			emailConfig := notifier.GetEmailConfigFromEnv()
			if !emailConfig.Enabled() {
				return errors.New("email notifications are not configured: set EMAIL_SMTP_HOST and EMAIL_RECIPIENT")
			}

			n, err := notifier.NewEmailNotifier(emailConfig)
			if err != nil {
				return err
			}
			if err := n.SendTest(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}
