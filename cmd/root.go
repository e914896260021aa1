package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	ctx := newCommandContext()

	rootCmd := &cobra.Command{
		Use:           "episode-pulse",
		Short:         "Per-episode ratings from the title catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx.load(cmd)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&ctx.dataFlag, "data", "", "Path to database directory (overrides DATA_PATH)")
	flags.StringVar(&ctx.baseURLFlag, "base-url", "", "Catalog base URL (overrides CATALOG_BASE_URL)")
	flags.StringVar(&ctx.logLevelFlag, "log-level", "", "Log level (overrides LOG_LEVEL)")

	rootCmd.AddCommand(newSearchCommand(ctx))
	rootCmd.AddCommand(newSeasonsCommand(ctx))
	rootCmd.AddCommand(newRatingsCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newStatsCommand(ctx))
	rootCmd.AddCommand(newTestNotifyCommand(ctx))

	return rootCmd
}
