package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"golang.org/x/sync/semaphore"
)

// seasonOutcome is what one fetch-task leaves in its slot. err is set when
// the season degraded to an empty result.
type seasonOutcome struct {
	result SeasonResult
	err    error
}

// AggregateRatings collects the ratings of every season of a title. At most
// concurrency season pages are fetched at once; zero or less uses the
// client default. A season whose page cannot be read is left out of the
// result instead of failing the call.
func (c *Client) AggregateRatings(ctx context.Context, titleID string, concurrency int) (AggregatedRatings, error) {
	report, err := c.Aggregate(ctx, titleID, concurrency)
	if err != nil {
		return nil, err
	}
	return report.Ratings, nil
}

// Aggregate is AggregateRatings with the per-season failures attached.
// It fails only with ErrCountUnavailable or ErrCancelled.
func (c *Client) Aggregate(ctx context.Context, titleID string, concurrency int) (*Report, error) {
	count, err := c.DiscoverSeasonCount(ctx, titleID)
	if err != nil {
		return nil, err
	}

	limit := c.admissionLimit(concurrency, count)
	gate := semaphore.NewWeighted(int64(limit))
	slots := make([]seasonOutcome, count)

	logger := log.WithField("title", titleID)
	logger.Debugf("Fetching %d seasons, %d at a time", count, limit)

	var wg sync.WaitGroup
	for season := 1; season <= count; season++ {
		if err := gate.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer gate.Release(1)
			slots[season-1] = c.fetchSeason(ctx, titleID, season)
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCancelled, titleID, err)
	}

	report := assemble(titleID, slots)
	for _, season := range report.FailedSeasons() {
		logger.WithField("season", season).Warnf("Season skipped: %v", report.Failures[season])
	}
	logger.Infof("Aggregated %d of %d seasons", len(report.Ratings), count)
	return report, nil
}

func (c *Client) admissionLimit(requested, count int) int {
	limit := requested
	if limit <= 0 {
		limit = c.concurrency
	}
	if limit <= 0 || limit > count {
		limit = count
	}
	return max(limit, 1)
}

// fetchSeason runs one fetch-task: fetch, parse, extract. Every failure
// ends the task with an empty result for its season.
func (c *Client) fetchSeason(ctx context.Context, titleID string, season int) seasonOutcome {
	taskCtx, cancel := c.withTaskTimeout(ctx)
	defer cancel()

	outcome := seasonOutcome{result: SeasonResult{Season: season}}

	raw, err := c.fetcher.Fetch(taskCtx, SeasonURL(c.baseURL, titleID, season))
	if err != nil {
		outcome.err = fmt.Errorf("season %d: %w", season, err)
		return outcome
	}

	doc, err := c.parse(raw)
	if err != nil {
		outcome.err = fmt.Errorf("season %d: %w", season, err)
		return outcome
	}

	outcome.result.Ratings = ExtractRatings(doc)
	return outcome
}

// assemble reduces the task slots into a report. It only looks at slot
// contents, so the outcome does not depend on completion order.
func assemble(titleID string, slots []seasonOutcome) *Report {
	ratings := lo.Reduce(slots, func(acc AggregatedRatings, o seasonOutcome, _ int) AggregatedRatings {
		if len(o.result.Ratings) > 0 {
			acc[o.result.Season] = o.result.Ratings
		}
		return acc
	}, AggregatedRatings{})

	failures := lo.Reduce(slots, func(acc map[int]error, o seasonOutcome, _ int) map[int]error {
		if o.err != nil {
			acc[o.result.Season] = o.err
		}
		return acc
	}, map[int]error{})

	var combined error
	for _, season := range lo.Range(len(slots)) {
		if err, ok := failures[season+1]; ok {
			combined = multierr.Append(combined, err)
		}
	}

	return &Report{
		TitleID:     titleID,
		SeasonCount: len(slots),
		Ratings:     ratings,
		Failures:    failures,
		Err:         combined,
	}
}
