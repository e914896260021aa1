package main

import (
	"fmt"

	"episode-pulse/storage"

	"github.com/spf13/cobra"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show snapshot database statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStorage(func(store *storage.SQLiteStorage) error {
				stats, err := store.GetStats()
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(
					[]string{"Titles", "Snapshots", "Episodes", "Rated"},
					[][]string{{
						fmt.Sprint(stats["titles"]),
						fmt.Sprint(stats["snapshots"]),
						fmt.Sprint(stats["episodes"]),
						fmt.Sprint(stats["rated"]),
					}},
					[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
				))

				titles, err := store.ListTitles()
				if err != nil {
					return err
				}

				rows := make([][]string, 0, len(titles))
				for _, title := range titles {
					latest, err := store.LatestSnapshot(title.ID)
					if err != nil {
						return err
					}
					taken := "-"
					if latest != nil {
						taken = latest.TakenAt.Local().Format("2006-01-02 15:04")
					}
					rows = append(rows, []string{title.ID, title.Name, taken})
				}
				if len(rows) > 0 {
					fmt.Fprintln(out, renderTable([]string{"ID", "Name", "Last Snapshot"}, rows, nil))
				}
				return nil
			})
		},
	}
}
