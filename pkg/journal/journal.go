// Package journal provides SQLite-based storage of release runs. Every run
// and each of its step outcomes is recorded so operators can answer "what
// did the last release do, and where did it stop" after the fact.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"relkit/pkg/logx"
)

// Release status constants.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Step status constants.
const (
	StepPassed    = "passed"
	StepFailed    = "failed"
	StepTolerated = "tolerated"
	StepSkipped   = "skipped"
)

// Release is a recorded release run.
type Release struct {
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	ID         string     `json:"id"`
	Project    string     `json:"project"`
	Version    string     `json:"version"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
}

// StepRecord is a recorded step outcome within a release run.
type StepRecord struct {
	ReleaseID  string `json:"release_id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Detail     string `json:"detail,omitempty"`
	Position   int    `json:"position"`
	DurationMS int64  `json:"duration_ms"`
}

// Store wraps the journal database.
type Store struct {
	db     *sql.DB
	logger *logx.Logger
}

// Open opens (creating if needed) the journal database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	// WAL mode and busy timeout keep concurrent reads (relkit history during
	// a run) from failing on lock contention.
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_foreign_keys=ON&_journal_mode=WAL&_busy_timeout=5000",
		path,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping journal database: %w", err)
	}

	if err := initializeSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db, logger: logx.NewLogger("journal")}
	store.logger.Debug("Journal opened: %s", path)
	return store, nil
}

// Close closes the journal database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close journal database: %w", err)
	}
	return nil
}

// BeginRelease records the start of a release run and returns its ID.
func (s *Store) BeginRelease(project, version string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.Exec(`
		INSERT INTO releases (id, project, version, status, started_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, project, version, StatusRunning, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to record release start: %w", err)
	}
	return id, nil
}

// RecordStep records a step outcome for a release run.
func (s *Store) RecordStep(releaseID string, position int, name, status string, duration time.Duration, detail string) error {
	_, err := s.db.Exec(`
		INSERT INTO release_steps (release_id, position, name, status, duration_ms, detail)
		VALUES (?, ?, ?, ?, ?, ?)`,
		releaseID, position, name, status, duration.Milliseconds(), detail,
	)
	if err != nil {
		return fmt.Errorf("failed to record step %s: %w", name, err)
	}
	return nil
}

// FinishRelease records the final status of a release run.
func (s *Store) FinishRelease(releaseID, status, errMsg string) error {
	_, err := s.db.Exec(`
		UPDATE releases SET status = ?, finished_at = ?, error = ?
		WHERE id = ?`,
		status, time.Now().UTC(), errMsg, releaseID,
	)
	if err != nil {
		return fmt.Errorf("failed to record release finish: %w", err)
	}
	return nil
}

// ListReleases returns the most recent release runs, newest first.
func (s *Store) ListReleases(limit int) ([]Release, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT id, project, version, status, started_at, finished_at, COALESCE(error, '')
		FROM releases
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list releases: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var releases []Release
	for rows.Next() {
		var r Release
		var finishedAt sql.NullTime
		if err := rows.Scan(&r.ID, &r.Project, &r.Version, &r.Status, &r.StartedAt, &finishedAt, &r.Error); err != nil {
			return nil, fmt.Errorf("failed to scan release row: %w", err)
		}
		if finishedAt.Valid {
			t := finishedAt.Time
			r.FinishedAt = &t
		}
		releases = append(releases, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate releases: %w", err)
	}

	return releases, nil
}

// ListSteps returns the recorded steps of a release run in execution order.
func (s *Store) ListSteps(releaseID string) ([]StepRecord, error) {
	rows, err := s.db.Query(`
		SELECT release_id, position, name, status, duration_ms, COALESCE(detail, '')
		FROM release_steps
		WHERE release_id = ?
		ORDER BY position ASC`, releaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var steps []StepRecord
	for rows.Next() {
		var st StepRecord
		if err := rows.Scan(&st.ReleaseID, &st.Position, &st.Name, &st.Status, &st.DurationMS, &st.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan step row: %w", err)
		}
		steps = append(steps, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate steps: %w", err)
	}

	return steps, nil
}
