// Package experiment persists lesson runs and their metrics in SQLite.
//
// Every CLI run gets a row in the runs table with its config snapshot;
// per-epoch metrics stream into the metrics table as training goes, and
// FinishRun seals the row with a status and the final numbers. The store
// backs `primer runs list` and `primer runs show`.
package experiment

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	_ "modernc.org/sqlite"
)

var json = jsoniter.ConfigFastest

// Run statuses.
const (
	StatusRunning  = "running"
	StatusFinished = "finished"
	StatusFailed   = "failed"
)

// ErrRunNotFound is returned when a run id does not exist in the store.
var ErrRunNotFound = errors.New("experiment: run not found")

// Run is one recorded lesson execution.
type Run struct {
	ID        string
	Lesson    string
	Status    string
	Config    map[string]any
	Metrics   map[string]float64
	CreatedAt time.Time

	// FinishedAt stays zero while the run is in progress.
	FinishedAt time.Time
}

// Metric is one per-epoch measurement of a run.
type Metric struct {
	Epoch int
	Name  string
	Value float64
}

// Store is a SQLite-backed run database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	lesson TEXT NOT NULL,
	status TEXT NOT NULL,
	config_json TEXT,
	metrics_json TEXT,
	created_at DATETIME NOT NULL,
	finished_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_runs_lesson ON runs(lesson);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);

CREATE TABLE IF NOT EXISTS metrics (
	run_id TEXT NOT NULL,
	epoch INTEGER NOT NULL,
	name TEXT NOT NULL,
	value REAL NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(id)
);
CREATE INDEX IF NOT EXISTS idx_metrics_run ON metrics(run_id);
`

// Open creates or opens the run store at the given path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run database: %w", err)
	}

	store := &Store{db: db, dbPath: path}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// StartRun inserts a new running row with a fresh uuid and returns it.
// The config snapshot is stored as JSON alongside the run.
func (s *Store) StartRun(lesson string, config map[string]any) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	configJSON, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode run config: %w", err)
	}

	run := &Run{
		ID:        uuid.NewString(),
		Lesson:    lesson,
		Status:    StatusRunning,
		Config:    config,
		CreatedAt: time.Now().UTC(),
	}

	_, err = s.db.Exec(`
		INSERT INTO runs (id, lesson, status, config_json, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.Lesson, run.Status, string(configJSON), run.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	return run, nil
}

// RecordMetric appends one per-epoch measurement to a run.
func (s *Store) RecordMetric(runID string, epoch int, name string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO metrics (run_id, epoch, name, value)
		VALUES (?, ?, ?, ?)
	`, runID, epoch, name, value)
	if err != nil {
		return fmt.Errorf("failed to record metric %s: %w", name, err)
	}
	return nil
}

// FinishRun seals a run with its final status and metrics.
func (s *Store) FinishRun(runID, status string, metrics map[string]float64) error {
	if status != StatusFinished && status != StatusFailed {
		return fmt.Errorf("experiment: invalid final status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("failed to encode final metrics: %w", err)
	}

	result, err := s.db.Exec(`
		UPDATE runs SET status = ?, metrics_json = ?, finished_at = ?
		WHERE id = ?
	`, status, string(metricsJSON), time.Now().UTC(), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// GetRun loads one run by id.
func (s *Store) GetRun(id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, lesson, status, config_json, metrics_json, created_at, finished_at
		FROM runs WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first. A non-positive
// limit returns all of them.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1 // sqlite: LIMIT -1 means unlimited
	}
	rows, err := s.db.Query(`
		SELECT id, lesson, status, config_json, metrics_json, created_at, finished_at
		FROM runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Metrics returns a run's per-epoch measurements in recording order.
func (s *Store) Metrics(runID string) ([]Metric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT epoch, name, value FROM metrics
		WHERE run_id = ?
		ORDER BY epoch, rowid
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load metrics: %w", err)
	}
	defer rows.Close()

	var metrics []Metric
	for rows.Next() {
		var m Metric
		if err := rows.Scan(&m.Epoch, &m.Name, &m.Value); err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var configJSON, metricsJSON sql.NullString
	var finishedAt sql.NullTime

	err := row.Scan(&run.ID, &run.Lesson, &run.Status, &configJSON, &metricsJSON,
		&run.CreatedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	if configJSON.Valid && configJSON.String != "" {
		if err := json.Unmarshal([]byte(configJSON.String), &run.Config); err != nil {
			return nil, fmt.Errorf("failed to decode run config: %w", err)
		}
	}
	if metricsJSON.Valid && metricsJSON.String != "" {
		if err := json.Unmarshal([]byte(metricsJSON.String), &run.Metrics); err != nil {
			return nil, fmt.Errorf("failed to decode final metrics: %w", err)
		}
	}
	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}
	return &run, nil
}
