package main

import (
	"fmt"
	"time"

	"episode-pulse/catalog"
	"episode-pulse/scheduler"
	"episode-pulse/storage"

	"github.com/spf13/cobra"
)

func newSeasonsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seasons <title-id>",
		Short: "Show how many seasons a title lists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := ctx.newClient().DiscoverSeasonCount(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s lists %d season(s)\n", args[0], count)
			return nil
		},
	}
}

type ratingsOutput struct {
	TitleID       string                    `json:"title_id"`
	SeasonCount   int                       `json:"season_count"`
	Ratings       catalog.AggregatedRatings `json:"ratings"`
	FailedSeasons []int                     `json:"failed_seasons,omitempty"`
	Summaries     []catalog.SeasonSummary   `json:"summaries"`
}

func newRatingsCommand(ctx *commandContext) *cobra.Command {
	var (
		concurrency int
		timeout     time.Duration
		retries     int
		save        bool
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "ratings <title-id>",
		Short: "Aggregate per-episode ratings across every season of a title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("concurrency") {
				ctx.config.Concurrency = concurrency
			}
			if flags.Changed("timeout") {
				ctx.config.TaskTimeout = timeout
			}
			if flags.Changed("retries") {
				ctx.config.FetchRetries = retries
			}

			titleID := args[0]
			report, err := ctx.newClient().Aggregate(cmd.Context(), titleID, ctx.config.Concurrency)
			if err != nil {
				return err
			}

			if save {
				if err := ctx.withStorage(func(store *storage.SQLiteStorage) error {
					return saveReport(store, report)
				}); err != nil {
					return err
				}
			}

			result := ratingsOutput{
				TitleID:       report.TitleID,
				SeasonCount:   report.SeasonCount,
				Ratings:       report.Ratings,
				FailedSeasons: report.FailedSeasons(),
				Summaries:     catalog.Summarize(report.Ratings),
			}
			if asJSON {
				return writeJSON(cmd, result)
			}
			printRatings(cmd, result, report)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&concurrency, "concurrency", "k", 0, "Season pages fetched at once, 0 for all (overrides CONCURRENCY)")
	flags.DurationVar(&timeout, "timeout", 0, "Per page timeout (overrides TASK_TIMEOUT)")
	flags.IntVar(&retries, "retries", 0, "Retries per page on transient errors (overrides FETCH_RETRIES)")
	flags.BoolVar(&save, "save", false, "Store the result as a snapshot")
	flags.BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func saveReport(store *storage.SQLiteStorage, report *catalog.Report) error {
	title, err := store.GetTitle(report.TitleID)
	if err != nil {
		return err
	}
	if title == nil {
		if err := store.SaveTitle(storage.Title{ID: report.TitleID, Name: report.TitleID}); err != nil {
			return err
		}
	}

	snapshot := scheduler.SnapshotFromReport(report, time.Now())
	_, err = store.SaveSnapshot(snapshot)
	return err
}

func printRatings(cmd *cobra.Command, result ratingsOutput, report *catalog.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d season(s) listed\n", result.TitleID, result.SeasonCount)

	if len(result.Ratings) == 0 {
		fmt.Fprintln(out, "No ratings found")
	} else {
		var rows [][]string
		for _, season := range result.Ratings.Seasons() {
			for _, r := range result.Ratings[season] {
				rows = append(rows, []string{fmt.Sprint(season), fmt.Sprint(r.Episode), formatRating(r.Rating)})
			}
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Season", "Episode", "Rating"},
			rows,
			[]columnAlignment{alignRight, alignRight, alignRight},
		))

		summaryRows := make([][]string, 0, len(result.Summaries))
		for _, s := range result.Summaries {
			summaryRows = append(summaryRows, []string{
				fmt.Sprint(s.Season), fmt.Sprint(s.Episodes), fmt.Sprint(s.Rated), formatRating(s.Average),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Season", "Episodes", "Rated", "Average"},
			summaryRows,
			[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
		))
	}

	for _, season := range result.FailedSeasons {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: season %d has no data: %v\n", season, report.Failures[season])
	}
}
