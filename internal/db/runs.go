package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/verasls/activity-recognition/internal/activity"
)

// ErrRunNotFound indicates no run exists with the requested id.
var ErrRunNotFound = errors.New("run not found")

// Run statuses.
const (
	RunStatusRunning  = "running"
	RunStatusComplete = "complete"
	RunStatusFailed   = "failed"
)

// Run is one classification run: the configuration it was started with
// and its lifecycle state.
type Run struct {
	ID           string     `json:"id"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	Placement    string     `json:"placement"`
	ModelType    string     `json:"model_type"`
	SamplingFreq float64    `json:"sampling_freq"`
	WindowSize   float64    `json:"window_size"`
	ChunkSize    int        `json:"chunk_size"`
	Source       string     `json:"source,omitempty"`
	Status       string     `json:"status"`
	WindowCount  int        `json:"window_count"`
}

// ActivityTotal is the per-activity rollup of one run.
type ActivityTotal struct {
	Activity string  `json:"activity"`
	Windows  int     `json:"windows"`
	Seconds  float64 `json:"seconds"`
}

// NewRun builds a Run row for the given engine configuration. The
// caller inserts it with InsertRun.
func NewRun(cfg activity.Config, source string, startedAt time.Time) *Run {
	return &Run{
		ID:           uuid.NewString(),
		StartedAt:    startedAt,
		Placement:    cfg.Placement,
		ModelType:    cfg.ModelType,
		SamplingFreq: cfg.SamplingFreq,
		WindowSize:   cfg.WindowSize,
		ChunkSize:    cfg.ChunkSize,
		Source:       source,
		Status:       RunStatusRunning,
	}
}

// InsertRun records a new run.
func (db *DB) InsertRun(run *Run) error {
	_, err := db.Exec(`
		INSERT INTO runs (id, started_at, placement, model_type, sampling_freq, window_size, chunk_size, source, status, window_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC(), run.Placement, run.ModelType,
		run.SamplingFreq, run.WindowSize, run.ChunkSize, run.Source, run.Status, run.WindowCount,
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}
	return nil
}

// FinishRun marks a run complete or failed and records its final
// window count.
func (db *DB) FinishRun(id, status string, windowCount int, finishedAt time.Time) error {
	res, err := db.Exec(`
		UPDATE runs SET status = ?, window_count = ?, finished_at = ? WHERE id = ?`,
		status, windowCount, finishedAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// InsertPredictions bulk-inserts a run's predictions in one
// transaction, preserving window order through window_index.
func (db *DB) InsertPredictions(runID string, predictions []activity.Prediction) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO predictions (run_id, window_index, timestamp, activity)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, p := range predictions {
		if _, err := stmt.Exec(runID, i, p.Timestamp.UTC(), string(p.Activity)); err != nil {
			return fmt.Errorf("inserting prediction %d of run %s: %w", i, runID, err)
		}
	}
	return tx.Commit()
}

// GetRun fetches one run by id.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.QueryRow(`
		SELECT id, started_at, finished_at, placement, model_type, sampling_freq, window_size, chunk_size, source, status, window_count
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// ListRuns returns runs newest-first, up to limit (default 50).
func (db *DB) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT id, started_at, finished_at, placement, model_type, sampling_freq, window_size, chunk_size, source, status, window_count
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListPredictions returns a run's predictions in window order. A limit
// of zero or less returns the whole run.
func (db *DB) ListPredictions(runID string, limit, offset int) ([]activity.Prediction, error) {
	if limit <= 0 {
		limit = -1 // sqlite reads a negative LIMIT as unbounded
	}
	rows, err := db.Query(`
		SELECT timestamp, activity FROM predictions
		WHERE run_id = ? ORDER BY window_index LIMIT ? OFFSET ?`,
		runID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var predictions []activity.Prediction
	for rows.Next() {
		var p activity.Prediction
		var label string
		if err := rows.Scan(&p.Timestamp, &label); err != nil {
			return nil, err
		}
		p.Activity = activity.Activity(label)
		predictions = append(predictions, p)
	}
	return predictions, rows.Err()
}

// ActivitySummary rolls up a run's predictions per activity. Seconds
// are window counts scaled by the run's window size.
func (db *DB) ActivitySummary(runID string) ([]ActivityTotal, error) {
	run, err := db.GetRun(runID)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT activity, COUNT(*) FROM predictions
		WHERE run_id = ? GROUP BY activity ORDER BY activity`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []ActivityTotal
	for rows.Next() {
		var t ActivityTotal
		if err := rows.Scan(&t.Activity, &t.Windows); err != nil {
			return nil, err
		}
		t.Seconds = float64(t.Windows) * run.WindowSize
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var finishedAt sql.NullTime
	var source sql.NullString
	err := row.Scan(&run.ID, &run.StartedAt, &finishedAt, &run.Placement, &run.ModelType,
		&run.SamplingFreq, &run.WindowSize, &run.ChunkSize, &source, &run.Status, &run.WindowCount)
	if err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	run.Source = source.String
	return &run, nil
}
