package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/verasls/activity-recognition/internal/activity"
	"github.com/verasls/activity-recognition/internal/activity/model"
	"github.com/verasls/activity-recognition/internal/config"
	"github.com/verasls/activity-recognition/internal/db"
	"github.com/verasls/activity-recognition/internal/ingest"
	"github.com/verasls/activity-recognition/internal/monitoring"
	"github.com/verasls/activity-recognition/internal/report"
	"github.com/verasls/activity-recognition/internal/security"
)

// runClassification reads the input CSV, runs chunked inference, and
// persists the run with its predictions. Partial results from a failed
// run are persisted too, with the run marked failed.
func runClassification(database *db.DB, cfg *config.PipelineConfig) error {
	engineCfg := cfg.EngineConfig()
	registry := model.NewRegistry(cfg.GetModelDir())
	engine, err := activity.NewEngine(engineCfg, registry)
	if err != nil {
		return err
	}
	engineCfg = engine.Config()

	f, err := os.Open(*inputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	series, err := ingest.ReadCSV(f, ingest.CSVOptions{
		Columns: cfg.GetColumns(),
		Units:   cfg.GetUnits(),
	})
	if err != nil {
		return fmt.Errorf("reading %s: %w", *inputPath, err)
	}
	monitoring.Logf("read %d samples from %s", series.Len(), *inputPath)

	run := db.NewRun(engineCfg, filepath.Base(*inputPath), time.Now())
	if err := database.InsertRun(run); err != nil {
		return err
	}

	predictions, runErr := engine.ClassifySeries(series)
	if runErr != nil {
		var chunkErr *activity.ChunkError
		if errors.As(runErr, &chunkErr) {
			predictions = chunkErr.Partial
		}
	}

	if len(predictions) > 0 {
		if err := database.InsertPredictions(run.ID, predictions); err != nil {
			return err
		}
	}

	status := db.RunStatusComplete
	if runErr != nil {
		status = db.RunStatusFailed
	}
	if err := database.FinishRun(run.ID, status, len(predictions), time.Now()); err != nil {
		return err
	}

	if runErr != nil {
		return fmt.Errorf("run %s: %w", run.ID, runErr)
	}

	printSummary(database, run.ID)

	if *reportPath != "" {
		if err := writeReport(database, run.ID, *reportPath); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(database *db.DB, runID string) {
	totals, err := database.ActivitySummary(runID)
	if err != nil {
		monitoring.Logf("failed to summarize run %s: %v", runID, err)
		return
	}
	fmt.Printf("run %s\n", runID)
	for _, t := range totals {
		fmt.Printf("  %-8s %6d windows  %8.1fs\n", t.Activity, t.Windows, t.Seconds)
	}
}

// writeReport renders the run's HTML report to path. The file name is
// sanitized; the directory must already exist.
func writeReport(database *db.DB, runID, path string) error {
	run, err := database.GetRun(runID)
	if err != nil {
		return err
	}
	predictions, err := database.ListPredictions(runID, 0, 0)
	if err != nil {
		return err
	}
	totals, err := database.ActivitySummary(runID)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	name := security.SanitizeFilename(filepath.Base(path))
	out, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	defer out.Close()

	if err := report.Render(out, run, predictions, totals); err != nil {
		return err
	}
	monitoring.Logf("wrote report to %s", filepath.Join(dir, name))
	return nil
}
