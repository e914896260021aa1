package scheduler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"episode-pulse/catalog"
	"episode-pulse/notifier"
	"episode-pulse/storage"

	"github.com/google/go-cmp/cmp"
)

type fakeSource struct {
	results map[string][]catalog.TitleRecord
	reports map[string]*catalog.Report
	errs    map[string]error
	calls   []string
}

func (f *fakeSource) Search(ctx context.Context, query string) ([]catalog.TitleRecord, error) {
	f.calls = append(f.calls, "search:"+query)
	return f.results[query], nil
}

func (f *fakeSource) Aggregate(ctx context.Context, titleID string, concurrency int) (*catalog.Report, error) {
	f.calls = append(f.calls, "aggregate:"+titleID)
	if err := f.errs[titleID]; err != nil {
		return nil, err
	}
	report, ok := f.reports[titleID]
	if !ok {
		return nil, catalog.ErrCountUnavailable
	}
	return report, nil
}

type recordingNotifier struct {
	sent [][]notifier.RatingsDigest
}

func (r *recordingNotifier) NotifyRatingsUpdate(digests []notifier.RatingsDigest) error {
	r.sent = append(r.sent, digests)
	return nil
}

func newTestStorage(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store := storage.NewSQLiteStorage(t.TempDir())
	if err := store.Initialize(); err != nil {
		t.Fatalf("Failed to initialize storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func ratingPtr(v float64) *float64 {
	return &v
}

func report(titleID string, ratings catalog.AggregatedRatings, failures map[int]error) *catalog.Report {
	return &catalog.Report{
		TitleID:     titleID,
		SeasonCount: 2,
		Ratings:     ratings,
		Failures:    failures,
	}
}

func TestRatingsWatchJobFirstRunAndDiff(t *testing.T) {
	store := newTestStorage(t)
	mail := &recordingNotifier{}
	source := &fakeSource{
		results: map[string][]catalog.TitleRecord{
			"Breaking Bad": {
				{Name: "Breaking Bad", ID: "tt0903747", Kind: catalog.KindSeries},
				{Name: "Breaking Bad Wolf", ID: "tt0000099", Kind: catalog.KindMiniSeries},
			},
		},
		reports: map[string]*catalog.Report{
			"tt0903747": report("tt0903747", catalog.AggregatedRatings{
				1: {{Episode: 1, Rating: ratingPtr(9.0)}, {Episode: 2}},
			}, map[int]error{2: errors.New("season 2: timeout")}),
		},
	}

	job := NewRatingsWatchJob(source, store, mail, []string{"Breaking Bad"}, 2)
	job.now = func() time.Time { return time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC) }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(mail.sent) != 1 {
		t.Fatalf("notifications = %d, want 1", len(mail.sent))
	}
	first := mail.sent[0][0]
	if first.TitleID != "tt0903747" || first.TitleName != "Breaking Bad" {
		t.Errorf("digest title = %s %q", first.TitleID, first.TitleName)
	}
	if diff := cmp.Diff([]int{2}, first.FailedSeasons); diff != "" {
		t.Errorf("FailedSeasons mismatch (-want +got):\n%s", diff)
	}
	wantChanges := []notifier.RatingChange{{Season: 1, Episode: 1, Current: ratingPtr(9.0)}}
	if diff := cmp.Diff(wantChanges, first.Changes); diff != "" {
		t.Errorf("first run changes mismatch (-want +got):\n%s", diff)
	}

	stored, err := store.GetTitle("tt0903747")
	if err != nil || stored == nil || stored.Name != "Breaking Bad" {
		t.Fatalf("GetTitle() = %+v, %v", stored, err)
	}

	// Second run by id: episode 2 gains a rating, episode 1 is unchanged.
	source.reports["tt0903747"] = report("tt0903747", catalog.AggregatedRatings{
		1: {{Episode: 1, Rating: ratingPtr(9.0)}, {Episode: 2, Rating: ratingPtr(8.7)}},
	}, nil)
	job.watched = []string{"tt0903747"}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if len(mail.sent) != 2 {
		t.Fatalf("notifications = %d, want 2", len(mail.sent))
	}
	second := mail.sent[1][0]
	if second.TitleName != "Breaking Bad" {
		t.Errorf("stored name not reused, got %q", second.TitleName)
	}
	wantChanges = []notifier.RatingChange{{Season: 1, Episode: 2, Current: ratingPtr(8.7)}}
	if diff := cmp.Diff(wantChanges, second.Changes); diff != "" {
		t.Errorf("second run changes mismatch (-want +got):\n%s", diff)
	}

	// Third run with identical ratings sends nothing.
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("third Run() error = %v", err)
	}
	if len(mail.sent) != 2 {
		t.Errorf("notifications = %d, want no new mail without changes", len(mail.sent))
	}

	stats, err := store.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats["snapshots"] != 3 {
		t.Errorf("snapshots = %d, want 3", stats["snapshots"])
	}
}

func TestRatingsWatchJobContinuesPastFailures(t *testing.T) {
	store := newTestStorage(t)
	source := &fakeSource{
		results: map[string][]catalog.TitleRecord{},
		reports: map[string]*catalog.Report{
			"tt7366338": report("tt7366338", catalog.AggregatedRatings{
				1: {{Episode: 1, Rating: ratingPtr(9.4)}},
			}, nil),
		},
	}

	job := NewRatingsWatchJob(source, store, nil, []string{"tt0000001", "Nothing Matches", "tt7366338"}, 0)
	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("Run() should report the failed titles")
	}
	if !errors.Is(err, catalog.ErrCountUnavailable) {
		t.Errorf("Run() error = %v, want it to wrap ErrCountUnavailable", err)
	}

	latest, err := store.LatestSnapshot("tt7366338")
	if err != nil || latest == nil {
		t.Fatalf("LatestSnapshot() = %v, %v; the later title should still be stored", latest, err)
	}
}

func TestRatingsWatchJobStopsOnCancellation(t *testing.T) {
	store := newTestStorage(t)
	source := &fakeSource{
		errs: map[string]error{
			"tt0000001": fmt.Errorf("%w: tt0000001: %w", catalog.ErrCancelled, context.Canceled),
		},
	}

	job := NewRatingsWatchJob(source, store, nil, []string{"tt0000001", "tt0000002"}, 0)
	err := job.Run(context.Background())
	if !errors.Is(err, catalog.ErrCancelled) {
		t.Fatalf("Run() error = %v, want ErrCancelled", err)
	}

	want := []string{"aggregate:tt0000001"}
	if diff := cmp.Diff(want, source.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestDiffSnapshots(t *testing.T) {
	previous := &storage.Snapshot{Episodes: []storage.EpisodeRow{
		{Season: 1, Episode: 1, Rating: ratingPtr(8.0)},
		{Season: 1, Episode: 2, Rating: ratingPtr(7.5)},
		{Season: 2, Episode: 1, Rating: ratingPtr(9.0)},
	}}
	current := &storage.Snapshot{Episodes: []storage.EpisodeRow{
		{Season: 1, Episode: 1, Rating: ratingPtr(8.2)},
		{Season: 1, Episode: 2, Rating: ratingPtr(7.5)},
		{Season: 1, Episode: 3},
	}}

	want := []notifier.RatingChange{
		{Season: 1, Episode: 1, Previous: ratingPtr(8.0), Current: ratingPtr(8.2)},
	}
	if diff := cmp.Diff(want, diffSnapshots(previous, current)); diff != "" {
		t.Errorf("diffSnapshots() mismatch (-want +got):\n%s", diff)
	}
}
