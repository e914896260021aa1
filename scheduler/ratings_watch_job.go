package scheduler

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"episode-pulse/catalog"
	"episode-pulse/notifier"
	"episode-pulse/storage"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

var titleIDPattern = regexp.MustCompile(`^tt\d+$`)

// RatingsSource is the catalog surface the watch job needs
type RatingsSource interface {
	Search(ctx context.Context, query string) ([]catalog.TitleRecord, error)
	Aggregate(ctx context.Context, titleID string, concurrency int) (*catalog.Report, error)
}

// RatingsWatchJob aggregates the ratings of every watched title, stores a
// snapshot per title and mails a digest when ratings moved.
type RatingsWatchJob struct {
	source      RatingsSource
	storage     storage.StorageInterface
	notifier    notifier.Notifier
	watched     []string
	concurrency int
	now         func() time.Time
}

// NewRatingsWatchJob creates the watch job. Each watched entry is either a
// title id or a name to search for. notify may be nil.
func NewRatingsWatchJob(source RatingsSource, store storage.StorageInterface, notify notifier.Notifier, watched []string, concurrency int) *RatingsWatchJob {
	return &RatingsWatchJob{
		source:      source,
		storage:     store,
		notifier:    notify,
		watched:     watched,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// Name returns the name of the job
func (j *RatingsWatchJob) Name() string {
	return "ratings_watch"
}

// Run executes the job. Failures of single titles are logged and combined
// into the returned error; cancellation stops the run.
func (j *RatingsWatchJob) Run(ctx context.Context) error {
	if len(j.watched) == 0 {
		log.Warn("No watched titles configured, nothing to do")
		return nil
	}
	log.Infof("Running ratings watch job for %d title(s)", len(j.watched))

	var digests []notifier.RatingsDigest
	var errs error
	for _, entry := range j.watched {
		if err := ctx.Err(); err != nil {
			return err
		}

		digest, err := j.watchTitle(ctx, entry)
		if err != nil {
			if errors.Is(err, catalog.ErrCancelled) {
				return err
			}
			log.WithField("title", entry).Errorf("Watch failed: %v", err)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", entry, err))
			continue
		}
		digests = append(digests, digest)
	}

	changed := lo.SumBy(digests, func(d notifier.RatingsDigest) int { return len(d.Changes) })
	log.Infof("Ratings watch job complete. %d title(s) refreshed, %d rating change(s)", len(digests), changed)

	if j.notifier != nil && changed > 0 {
		if err := j.notifier.NotifyRatingsUpdate(digests); err != nil {
			log.Errorf("Failed to send email notification: %v", err)
		}
	}

	return errs
}

func (j *RatingsWatchJob) watchTitle(ctx context.Context, entry string) (notifier.RatingsDigest, error) {
	title, err := j.resolve(ctx, entry)
	if err != nil {
		return notifier.RatingsDigest{}, err
	}

	report, err := j.source.Aggregate(ctx, title.ID, j.concurrency)
	if err != nil {
		return notifier.RatingsDigest{}, err
	}

	previous, err := j.storage.LatestSnapshot(title.ID)
	if err != nil {
		return notifier.RatingsDigest{}, err
	}

	snapshot := SnapshotFromReport(report, j.now())
	if _, err := j.storage.SaveSnapshot(snapshot); err != nil {
		return notifier.RatingsDigest{}, err
	}

	failed := report.FailedSeasons()
	if len(failed) > 0 {
		log.WithField("title", title.ID).Warnf("Seasons without data: %v", failed)
	}

	return notifier.RatingsDigest{
		TitleID:       title.ID,
		TitleName:     title.Name,
		SeasonCount:   report.SeasonCount,
		FailedSeasons: failed,
		Summaries:     catalog.Summarize(report.Ratings),
		Changes:       diffSnapshots(previous, &snapshot),
	}, nil
}

// resolve turns a watched entry into a stored title. Ids are used as-is;
// names go through Search and the first listing wins.
func (j *RatingsWatchJob) resolve(ctx context.Context, entry string) (storage.Title, error) {
	if titleIDPattern.MatchString(entry) {
		stored, err := j.storage.GetTitle(entry)
		if err != nil {
			return storage.Title{}, err
		}
		if stored != nil {
			return *stored, nil
		}
		title := storage.Title{ID: entry, Name: entry}
		return title, j.storage.SaveTitle(title)
	}

	records, err := j.source.Search(ctx, entry)
	if err != nil {
		return storage.Title{}, err
	}
	if len(records) == 0 {
		return storage.Title{}, fmt.Errorf("no titles found for %q", entry)
	}

	record := records[0]
	title := storage.Title{ID: record.ID, Name: record.Name, ThumbnailURL: record.ThumbnailURL}
	return title, j.storage.SaveTitle(title)
}

// SnapshotFromReport converts an aggregation into a storable snapshot
func SnapshotFromReport(report *catalog.Report, takenAt time.Time) storage.Snapshot {
	snapshot := storage.Snapshot{
		TitleID:       report.TitleID,
		SeasonCount:   report.SeasonCount,
		FailedSeasons: report.FailedSeasons(),
		TakenAt:       takenAt,
	}
	for _, season := range report.Ratings.Seasons() {
		for _, r := range report.Ratings[season] {
			snapshot.Episodes = append(snapshot.Episodes, storage.EpisodeRow{
				Season:  season,
				Episode: r.Episode,
				Rating:  r.Rating,
			})
		}
	}
	return snapshot
}

type episodeKey struct {
	season, episode int
}

// diffSnapshots lists the episodes of current that gained or changed a
// rating since previous. Ratings that disappeared are not reported.
func diffSnapshots(previous, current *storage.Snapshot) []notifier.RatingChange {
	before := make(map[episodeKey]*float64)
	if previous != nil {
		for _, row := range previous.Episodes {
			before[episodeKey{row.Season, row.Episode}] = row.Rating
		}
	}

	var changes []notifier.RatingChange
	for _, row := range current.Episodes {
		if row.Rating == nil {
			continue
		}
		prev := before[episodeKey{row.Season, row.Episode}]
		if prev != nil && *prev == *row.Rating {
			continue
		}
		changes = append(changes, notifier.RatingChange{
			Season:   row.Season,
			Episode:  row.Episode,
			Previous: prev,
			Current:  row.Rating,
		})
	}
	return changes
}
