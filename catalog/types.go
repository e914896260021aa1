package catalog

import (
	"slices"

	"github.com/samber/lo"
)

// TitleKind classifies a search listing entry
type TitleKind string

const (
	KindSeries     TitleKind = "series"
	KindMiniSeries TitleKind = "mini-series"
	KindEpisode    TitleKind = "episode"
	KindOther      TitleKind = "other"
)

// TitleRecord is a title found by Search
type TitleRecord struct {
	Name         string    `json:"name"`
	ID           string    `json:"id"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Kind         TitleKind `json:"kind"`
}

// EpisodeRating is one rating widget on a season page. Episode is the
// widget's position on the page, not the episode number the page prints.
// A nil Rating means the episode is listed but unrated.
type EpisodeRating struct {
	Episode int      `json:"episode"`
	Rating  *float64 `json:"rating"`
}

// SeasonResult holds the ratings extracted from one season page, in page order
type SeasonResult struct {
	Season  int
	Ratings []EpisodeRating
}

// AggregatedRatings maps a season index to its ratings. Seasons that
// yielded no ratings are absent.
type AggregatedRatings map[int][]EpisodeRating

// Seasons returns the season indexes present, ascending
func (a AggregatedRatings) Seasons() []int {
	seasons := lo.Keys(a)
	slices.Sort(seasons)
	return seasons
}

// Report is the full outcome of an aggregation, including the seasons that
// degraded to no data.
type Report struct {
	TitleID     string
	SeasonCount int
	Ratings     AggregatedRatings
	// Failures holds the isolated error of every season whose page could
	// not be fetched or parsed.
	Failures map[int]error
	// Err combines Failures, nil when every season page was read.
	Err error
}

// FailedSeasons returns the seasons whose pages failed, ascending
func (r *Report) FailedSeasons() []int {
	seasons := lo.Keys(r.Failures)
	slices.Sort(seasons)
	return seasons
}

// SeasonSummary condenses one season's ratings
type SeasonSummary struct {
	Season   int      `json:"season"`
	Episodes int      `json:"episodes"`
	Rated    int      `json:"rated"`
	Average  *float64 `json:"average,omitempty"`
}

// Summarize returns a summary per season, ordered by season
func Summarize(ratings AggregatedRatings) []SeasonSummary {
	summaries := make([]SeasonSummary, 0, len(ratings))
	for _, season := range ratings.Seasons() {
		episodes := ratings[season]
		rated := lo.FilterMap(episodes, func(e EpisodeRating, _ int) (float64, bool) {
			if e.Rating == nil {
				return 0, false
			}
			return *e.Rating, true
		})

		summary := SeasonSummary{
			Season:   season,
			Episodes: len(episodes),
			Rated:    len(rated),
		}
		if len(rated) > 0 {
			avg := lo.Sum(rated) / float64(len(rated))
			summary.Average = &avg
		}
		summaries = append(summaries, summary)
	}
	return summaries
}
