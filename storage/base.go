package storage

import "time"

// Title is a watched title
type Title struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// EpisodeRow is one stored episode rating. A nil Rating is an unrated episode.
type EpisodeRow struct {
	Season  int      `json:"season"`
	Episode int      `json:"episode"`
	Rating  *float64 `json:"rating,omitempty"`
}

// Snapshot is the stored outcome of one aggregation of a title
type Snapshot struct {
	ID            int64        `json:"id"`
	TitleID       string       `json:"title_id"`
	SeasonCount   int          `json:"season_count"`
	FailedSeasons []int        `json:"failed_seasons,omitempty"`
	TakenAt       time.Time    `json:"taken_at"`
	Episodes      []EpisodeRow `json:"episodes"`
}
