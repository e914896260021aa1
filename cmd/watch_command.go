package main

import (
	"errors"
	"fmt"

	"episode-pulse/notifier"
	"episode-pulse/scheduler"
	"episode-pulse/storage"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "watch [title...]",
		Short: "Snapshot the ratings of watched titles on a schedule",
		Long: "Aggregates the ratings of every watched title, stores a snapshot and mails a digest of rating changes.\n" +
			"Titles are ids or names; arguments replace WATCH_TITLES.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.config
			watched := cfg.WatchTitles
			if len(args) > 0 {
				watched = args
			}
			if len(watched) == 0 {
				return errors.New("no titles to watch: pass titles or set WATCH_TITLES")
			}

			return ctx.withStorage(func(store *storage.SQLiteStorage) error {
				job := scheduler.NewRatingsWatchJob(ctx.newClient(), store, emailNotifier(), watched, cfg.Concurrency)

				if once {
					return job.Run(cmd.Context())
				}

				sched := scheduler.NewScheduler(scheduler.DefaultJobTimeout)
				if err := sched.AddJob(job, cfg.WatchSchedule); err != nil {
					return err
				}
				sched.Start()
				defer sched.Stop()
				fmt.Fprintf(cmd.OutOrStdout(), "Watching %d title(s) on schedule %q. Press Ctrl+C to exit\n", len(watched), cfg.WatchSchedule)

				if cfg.RunAtStartup {
					log.Info("Running initial watch at startup")
					if err := sched.RunJobNow(cmd.Context(), job.Name()); err != nil {
						log.Errorf("Error running initial job: %v", err)
					}
				}

				<-cmd.Context().Done()
				log.Info("Shutting down...")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Run a single watch pass and exit")
	return cmd
}

// emailNotifier returns the configured notifier, or nil when mail is not set up
func emailNotifier() notifier.Notifier {
	emailConfig := notifier.GetEmailConfigFromEnv()
	if !emailConfig.Enabled() {
		log.Info("Email notifications disabled: missing configuration")
		return nil
	}

	n, err := notifier.NewEmailNotifier(emailConfig)
	if err != nil {
		log.Errorf("Failed to create email notifier: %v", err)
		return nil
	}
	log.Infof("Email notifications will be sent to: %s", emailConfig.RecipientEmail)
	return n
}
