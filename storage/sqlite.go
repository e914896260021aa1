package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
)

type SQLiteStorage struct {
	db       *sql.DB
	dbPath   string
	dataPath string
}

type StorageInterface interface {
	Initialize() error
	SaveTitle(title Title) error
	GetTitle(id string) (*Title, error)
	ListTitles() ([]Title, error)
	SaveSnapshot(snapshot Snapshot) (int64, error)
	LatestSnapshot(titleID string) (*Snapshot, error)
	Close() error
}

func NewSQLiteStorage(dataPath string) *SQLiteStorage {
	dbPath := filepath.Join(dataPath, "episode_pulse.db")
	return &SQLiteStorage{
		dbPath:   dbPath,
		dataPath: dataPath,
	}
}

// dsn enables foreign keys so snapshot rows cascade with their snapshot
func (s *SQLiteStorage) dsn() string {
	return s.dbPath + "?_foreign_keys=on"
}

func (s *SQLiteStorage) Initialize() error {
	if err := os.MkdirAll(s.dataPath, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", s.dsn())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	s.db = db

	migrationManager := NewMigrationManager(s.db)
	if err := migrationManager.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}

	if err := migrationManager.Up(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Debugf("SQLite database initialized at: %s", s.dbPath)
	return nil
}

// SaveTitle inserts a title or refreshes its name and thumbnail
func (s *SQLiteStorage) SaveTitle(title Title) error {
	query := `
	INSERT INTO titles (id, name, thumbnail_url, created_at, updated_at)
	VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		thumbnail_url = COALESCE(NULLIF(excluded.thumbnail_url, ''), titles.thumbnail_url),
		updated_at = CURRENT_TIMESTAMP
	`

	if _, err := s.db.Exec(query, title.ID, title.Name, title.ThumbnailURL); err != nil {
		return fmt.Errorf("failed to save title %s: %w", title.ID, err)
	}
	return nil
}

// GetTitle returns the stored title, or nil when it is unknown
func (s *SQLiteStorage) GetTitle(id string) (*Title, error) {
	var title Title
	var thumbnail sql.NullString
	err := s.db.QueryRow(`SELECT id, name, thumbnail_url FROM titles WHERE id = ?`, id).
		Scan(&title.ID, &title.Name, &thumbnail)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get title %s: %w", id, err)
	}
	title.ThumbnailURL = thumbnail.String
	return &title, nil
}

func (s *SQLiteStorage) ListTitles() ([]Title, error) {
	rows, err := s.db.Query(`SELECT id, name, thumbnail_url FROM titles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query titles: %w", err)
	}
	defer rows.Close()

	var titles []Title
	for rows.Next() {
		var title Title
		var thumbnail sql.NullString
		if err := rows.Scan(&title.ID, &title.Name, &thumbnail); err != nil {
			return nil, fmt.Errorf("failed to scan title: %w", err)
		}
		title.ThumbnailURL = thumbnail.String
		titles = append(titles, title)
	}

	return titles, rows.Err()
}

// SaveSnapshot stores a snapshot and its episode rows in one transaction
// and returns the new snapshot id.
func (s *SQLiteStorage) SaveSnapshot(snapshot Snapshot) (int64, error) {
	failed, err := json.Marshal(snapshot.FailedSeasons)
	if err != nil {
		return 0, fmt.Errorf("failed to encode failed seasons: %w", err)
	}
	if snapshot.FailedSeasons == nil {
		failed = []byte("[]")
	}

	takenAt := snapshot.TakenAt
	if takenAt.IsZero() {
		takenAt = time.Now()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
	INSERT INTO rating_snapshots (title_id, season_count, failed_seasons, taken_at)
	VALUES (?, ?, ?, ?)
	`, snapshot.TitleID, snapshot.SeasonCount, string(failed), takenAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read snapshot id: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO episode_ratings (snapshot_id, season, episode, rating) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare episode insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range snapshot.Episodes {
		if _, err := stmt.Exec(id, row.Season, row.Episode, row.Rating); err != nil {
			return 0, fmt.Errorf("failed to insert season %d episode %d: %w", row.Season, row.Episode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return id, nil
}

// LatestSnapshot returns the most recent snapshot of a title, or nil when
// none was stored.
func (s *SQLiteStorage) LatestSnapshot(titleID string) (*Snapshot, error) {
	var snapshot Snapshot
	var failed string
	err := s.db.QueryRow(`
	SELECT id, title_id, season_count, failed_seasons, taken_at
	FROM rating_snapshots
	WHERE title_id = ?
	ORDER BY id DESC
	LIMIT 1
	`, titleID).Scan(&snapshot.ID, &snapshot.TitleID, &snapshot.SeasonCount, &failed, &snapshot.TakenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}

	if err := json.Unmarshal([]byte(failed), &snapshot.FailedSeasons); err != nil {
		return nil, fmt.Errorf("failed to decode failed seasons: %w", err)
	}

	rows, err := s.db.Query(`
	SELECT season, episode, rating
	FROM episode_ratings
	WHERE snapshot_id = ?
	ORDER BY season, episode
	`, snapshot.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query episode ratings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row EpisodeRow
		if err := rows.Scan(&row.Season, &row.Episode, &row.Rating); err != nil {
			return nil, fmt.Errorf("failed to scan episode rating: %w", err)
		}
		snapshot.Episodes = append(snapshot.Episodes, row)
	}

	return &snapshot, rows.Err()
}

func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStorage) GetDB() (*sql.DB, error) {
	if s.db == nil {
		db, err := sql.Open("sqlite3", s.dsn())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		s.db = db
	}
	return s.db, nil
}

func (s *SQLiteStorage) GetStats() (map[string]int, error) {
	stats := make(map[string]int)

	counts := []struct {
		key   string
		query string
	}{
		{"titles", "SELECT COUNT(*) FROM titles"},
		{"snapshots", "SELECT COUNT(*) FROM rating_snapshots"},
		{"episodes", "SELECT COUNT(*) FROM episode_ratings"},
		{"rated", "SELECT COUNT(*) FROM episode_ratings WHERE rating IS NOT NULL"},
	}

	for _, c := range counts {
		var n int
		if err := s.db.QueryRow(c.query).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to get %s count: %w", c.key, err)
		}
		stats[c.key] = n
	}

	return stats, nil
}

// Migration management methods
func (s *SQLiteStorage) GetMigrationManager() *MigrationManager {
	return NewMigrationManager(s.db)
}

func (s *SQLiteStorage) GetDatabaseVersion() (int64, error) {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return 0, err
	}
	return migrationManager.Version()
}

func (s *SQLiteStorage) RunMigrations() error {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return err
	}
	return migrationManager.Up()
}

func (s *SQLiteStorage) RollbackMigration() error {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return err
	}
	return migrationManager.Down()
}

func (s *SQLiteStorage) ResetDatabase() error {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return err
	}
	return migrationManager.Reset()
}
