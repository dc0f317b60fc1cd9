// Package config loads pipeline configuration from JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/verasls/activity-recognition/internal/activity"
	"github.com/verasls/activity-recognition/internal/ingest"
	"github.com/verasls/activity-recognition/internal/units"
)

// PipelineConfig is the JSON form of a classification setup. All fields
// are optional pointers so partial files merge cleanly with flag
// defaults; use the Get* accessors for resolved values.
type PipelineConfig struct {
	SamplingFreq   *float64 `json:"sampling_freq,omitempty"`
	Placement      *string  `json:"placement,omitempty"`
	ModelType      *string  `json:"model_type,omitempty"`
	WindowSize     *float64 `json:"window_size,omitempty"`
	ChunkSize      *int     `json:"chunk_size,omitempty"`
	FilterCutoffHz *float64 `json:"filter_cutoff_hz,omitempty"`

	Units   *string           `json:"units,omitempty"`
	Columns *ingest.ColumnMap `json:"columns,omitempty"`

	ModelDir *string `json:"model_dir,omitempty"`
	DBPath   *string `json:"db_path,omitempty"`
}

// EmptyPipelineConfig returns a config with every field unset.
func EmptyPipelineConfig() *PipelineConfig {
	return &PipelineConfig{}
}

// LoadPipelineConfig loads a PipelineConfig from a JSON file. The file
// must have a .json extension and stay under 1MB. Fields omitted from
// the file keep their defaults, so partial configs are safe.
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyPipelineConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields that are set. Placement and model type
// are validated again by the engine; checking here surfaces mistakes
// before any data is read.
func (c *PipelineConfig) Validate() error {
	if c.SamplingFreq != nil && *c.SamplingFreq <= 0 {
		return fmt.Errorf("sampling_freq must be positive, got %g", *c.SamplingFreq)
	}
	if c.Placement != nil && !activity.IsValidPlacement(*c.Placement) {
		return fmt.Errorf("unknown placement %q", *c.Placement)
	}
	if c.ModelType != nil && !activity.IsValidModelType(*c.ModelType) {
		return fmt.Errorf("unknown model_type %q", *c.ModelType)
	}
	if c.WindowSize != nil && *c.WindowSize <= 0 {
		return fmt.Errorf("window_size must be positive, got %g", *c.WindowSize)
	}
	if c.ChunkSize != nil && *c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", *c.ChunkSize)
	}
	if c.FilterCutoffHz != nil && *c.FilterCutoffHz <= 0 {
		return fmt.Errorf("filter_cutoff_hz must be positive, got %g", *c.FilterCutoffHz)
	}
	if c.Units != nil && !units.IsValid(*c.Units) {
		return fmt.Errorf("unknown units %q, valid units are: %s", *c.Units, units.GetValidUnitsString())
	}
	return nil
}

// EngineConfig resolves the engine-facing fields into an
// activity.Config, leaving unset optional fields at zero for the
// engine's own defaulting.
func (c *PipelineConfig) EngineConfig() activity.Config {
	cfg := activity.Config{}
	if c.SamplingFreq != nil {
		cfg.SamplingFreq = *c.SamplingFreq
	}
	if c.Placement != nil {
		cfg.Placement = *c.Placement
	}
	if c.ModelType != nil {
		cfg.ModelType = *c.ModelType
	}
	if c.WindowSize != nil {
		cfg.WindowSize = *c.WindowSize
	}
	if c.ChunkSize != nil {
		cfg.ChunkSize = *c.ChunkSize
	}
	if c.FilterCutoffHz != nil {
		cfg.CutoffHz = *c.FilterCutoffHz
	}
	return cfg
}

// GetUnits returns the configured acceleration units, defaulting to g.
func (c *PipelineConfig) GetUnits() string {
	if c.Units != nil {
		return *c.Units
	}
	return units.G
}

// GetColumns returns the configured column binding, defaulting to
// ingest.DefaultColumns.
func (c *PipelineConfig) GetColumns() ingest.ColumnMap {
	if c.Columns != nil {
		return *c.Columns
	}
	return ingest.DefaultColumns
}

// GetModelDir returns the model artifact directory, defaulting to
// "models".
func (c *PipelineConfig) GetModelDir() string {
	if c.ModelDir != nil {
		return *c.ModelDir
	}
	return "models"
}

// GetDBPath returns the sqlite path, defaulting to "activity.db".
func (c *PipelineConfig) GetDBPath() string {
	if c.DBPath != nil {
		return *c.DBPath
	}
	return "activity.db"
}
