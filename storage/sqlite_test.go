package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	storage := NewSQLiteStorage(t.TempDir())
	if err := storage.Initialize(); err != nil {
		t.Fatalf("Failed to initialize storage: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	return storage
}

func ratingPtr(v float64) *float64 {
	return &v
}

func TestSQLiteStorageTitles(t *testing.T) {
	storage := newTestStorage(t)

	missing, err := storage.GetTitle("tt0903747")
	if err != nil {
		t.Fatalf("GetTitle() error = %v", err)
	}
	if missing != nil {
		t.Fatalf("GetTitle() = %+v, want nil for an unknown title", missing)
	}

	if err := storage.SaveTitle(Title{ID: "tt0903747", Name: "Breaking Bad", ThumbnailURL: "https://img.test/bb.jpg"}); err != nil {
		t.Fatalf("SaveTitle() error = %v", err)
	}
	// An update without a thumbnail keeps the stored one.
	if err := storage.SaveTitle(Title{ID: "tt0903747", Name: "Breaking Bad (2008)"}); err != nil {
		t.Fatalf("SaveTitle() update error = %v", err)
	}
	if err := storage.SaveTitle(Title{ID: "tt7366338", Name: "Chernobyl"}); err != nil {
		t.Fatalf("SaveTitle() error = %v", err)
	}

	got, err := storage.GetTitle("tt0903747")
	if err != nil {
		t.Fatalf("GetTitle() error = %v", err)
	}
	want := &Title{ID: "tt0903747", Name: "Breaking Bad (2008)", ThumbnailURL: "https://img.test/bb.jpg"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetTitle() mismatch (-want +got):\n%s", diff)
	}

	titles, err := storage.ListTitles()
	if err != nil {
		t.Fatalf("ListTitles() error = %v", err)
	}
	if len(titles) != 2 || titles[0].ID != "tt0903747" || titles[1].ID != "tt7366338" {
		t.Errorf("ListTitles() = %+v", titles)
	}
}

func TestSQLiteStorageSnapshots(t *testing.T) {
	storage := newTestStorage(t)

	latest, err := storage.LatestSnapshot("tt0903747")
	if err != nil {
		t.Fatalf("LatestSnapshot() error = %v", err)
	}
	if latest != nil {
		t.Fatalf("LatestSnapshot() = %+v, want nil before any snapshot", latest)
	}

	first := Snapshot{
		TitleID:     "tt0903747",
		SeasonCount: 2,
		TakenAt:     time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC),
		Episodes: []EpisodeRow{
			{Season: 1, Episode: 1, Rating: ratingPtr(9.0)},
		},
	}
	if _, err := storage.SaveSnapshot(first); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}

	second := Snapshot{
		TitleID:       "tt0903747",
		SeasonCount:   2,
		FailedSeasons: []int{2},
		TakenAt:       time.Date(2026, 10, 2, 10, 0, 0, 0, time.UTC),
		Episodes: []EpisodeRow{
			{Season: 1, Episode: 2},
			{Season: 1, Episode: 1, Rating: ratingPtr(9.1)},
		},
	}
	id, err := storage.SaveSnapshot(second)
	if err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}

	got, err := storage.LatestSnapshot("tt0903747")
	if err != nil {
		t.Fatalf("LatestSnapshot() error = %v", err)
	}

	want := &Snapshot{
		ID:            id,
		TitleID:       "tt0903747",
		SeasonCount:   2,
		FailedSeasons: []int{2},
		TakenAt:       second.TakenAt,
		Episodes: []EpisodeRow{
			{Season: 1, Episode: 1, Rating: ratingPtr(9.1)},
			{Season: 1, Episode: 2},
		},
	}
	if diff := cmp.Diff(want, got, cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) })); diff != "" {
		t.Errorf("LatestSnapshot() mismatch (-want +got):\n%s", diff)
	}

	stats, err := storage.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats["snapshots"] != 2 || stats["episodes"] != 3 || stats["rated"] != 2 {
		t.Errorf("GetStats() = %v", stats)
	}
}

func TestSQLiteStorageInit(t *testing.T) {
	tempDir := t.TempDir()

	storage := NewSQLiteStorage(tempDir)
	err := storage.Initialize()
	if err != nil {
		t.Fatalf("Failed to initialize storage: %v", err)
	}
	defer storage.Close()

	dbPath := filepath.Join(tempDir, "episode_pulse.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatalf("Database file was not created")
	}
}

func TestSQLiteStorageGetDBEnablesForeignKeys(t *testing.T) {
	storage := NewSQLiteStorage(t.TempDir())
	defer storage.Close()

	db, err := storage.GetDB()
	if err != nil {
		t.Fatalf("GetDB() error = %v", err)
	}

	var enabled int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled); err != nil {
		t.Fatalf("PRAGMA foreign_keys error = %v", err)
	}
	if enabled != 1 {
		t.Errorf("foreign_keys = %d, want 1 on a connection opened by GetDB", enabled)
	}
}
