package activity

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/verasls/activity-recognition/internal/testutil"
)

// triaxialSeries assembles the shared synthetic fixture into a Series.
func triaxialSeries(n int, samplingFreq float64) *Series {
	ts, x, y, z := testutil.TriaxialSeries(n, samplingFreq)
	return &Series{Timestamps: ts, X: x, Y: y, Z: z}
}

// fakeClassifier labels windows round-robin so predictions depend on
// window order, making chunk-boundary mistakes visible.
type fakeClassifier struct {
	count   int
	failAt  int // global window index to fail on, -1 to never fail
	labels  int // labels to return per batch, -1 for one per vector
	batches int
}

func newFakeClassifier() *fakeClassifier {
	return &fakeClassifier{failAt: -1, labels: -1}
}

func (c *fakeClassifier) Predict(batch []FeatureVector) ([]Activity, error) {
	c.batches++
	out := make([]Activity, 0, len(batch))
	for _, fv := range batch {
		if len(fv) != NumFeatures {
			return nil, fmt.Errorf("batch vector has %d features", len(fv))
		}
		if c.count == c.failAt {
			return nil, errors.New("inference backend unavailable")
		}
		out = append(out, Activities[c.count%len(Activities)])
		c.count++
	}
	if c.labels >= 0 {
		out = out[:c.labels]
	}
	return out, nil
}

func (c *fakeClassifier) Name() string { return "fake" }

type fakeRegistry struct {
	clf   Classifier
	err   error
	loads int
}

func (r *fakeRegistry) Load(placement, modelType string) (Classifier, error) {
	r.loads++
	if r.err != nil {
		return nil, r.err
	}
	return r.clf, nil
}

func validConfig() Config {
	return Config{
		SamplingFreq: 100,
		Placement:    PlacementAnkle,
		ModelType:    ModelRF,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"valid defaults", func(c *Config) {}, true},
		{"hip placement", func(c *Config) { c.Placement = PlacementHip }, true},
		{"lower back placement", func(c *Config) { c.Placement = PlacementLowerBack }, true},
		{"svm model", func(c *Config) { c.ModelType = ModelSVM }, true},
		{"knn model", func(c *Config) { c.ModelType = ModelKNN }, true},
		{"unknown placement", func(c *Config) { c.Placement = "foot" }, false},
		{"unknown model type", func(c *Config) { c.ModelType = "xgboost" }, false},
		{"empty placement", func(c *Config) { c.Placement = "" }, false},
		{"zero sampling freq", func(c *Config) { c.SamplingFreq = 0 }, false},
		{"negative sampling freq", func(c *Config) { c.SamplingFreq = -10 }, false},
		{"negative window size", func(c *Config) { c.WindowSize = -1 }, false},
		{"negative chunk size", func(c *Config) { c.ChunkSize = -1 }, false},
		{"window too small for rate", func(c *Config) { c.SamplingFreq = 0.5; c.WindowSize = 1 }, false},
		{"negative cutoff", func(c *Config) { c.CutoffHz = -1 }, false},
		{"cutoff at nyquist", func(c *Config) { c.SamplingFreq = 10; c.CutoffHz = 5 }, false},
		{"cutoff above nyquist", func(c *Config) { c.CutoffHz = 60 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.withDefaults().Validate()
			if tt.valid && err != nil {
				t.Errorf("Validate() = %v, expected nil", err)
			}
			if !tt.valid {
				if !errors.Is(err, ErrInvalidConfiguration) {
					t.Errorf("Validate() = %v, expected ErrInvalidConfiguration", err)
				}
			}
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := validConfig().withDefaults()
	if cfg.WindowSize != 1.0 {
		t.Errorf("WindowSize = %v, expected 1", cfg.WindowSize)
	}
	if cfg.ChunkSize != 1000 {
		t.Errorf("ChunkSize = %d, expected 1000", cfg.ChunkSize)
	}
	if cfg.CutoffHz != DefaultCutoffHz {
		t.Errorf("CutoffHz = %v, expected %v", cfg.CutoffHz, DefaultCutoffHz)
	}
	if cfg.WindowLength() != 100 {
		t.Errorf("WindowLength() = %d, expected 100", cfg.WindowLength())
	}
}

func TestConfigDefaultCutoffLowRate(t *testing.T) {
	cfg := validConfig()
	cfg.SamplingFreq = 10
	cfg = cfg.withDefaults()
	if cfg.CutoffHz != 2.5 {
		t.Errorf("CutoffHz = %v, expected 2.5", cfg.CutoffHz)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, expected nil", err)
	}
}

func TestNewEngineRejectsCutoffAtNyquist(t *testing.T) {
	cfg := validConfig()
	cfg.SamplingFreq = 10
	cfg.CutoffHz = 5

	registry := &fakeRegistry{clf: newFakeClassifier()}
	_, err := NewEngine(cfg, registry)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("NewEngine() = %v, expected ErrInvalidConfiguration", err)
	}
	if registry.loads != 0 {
		t.Errorf("registry loaded %d times before validation, expected 0", registry.loads)
	}
}

func TestNewEngineValidatesBeforeLoading(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad placement", func(c *Config) { c.Placement = "foot" }},
		{"bad model type", func(c *Config) { c.ModelType = "xgboost" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			registry := &fakeRegistry{clf: newFakeClassifier()}

			_, err := NewEngine(cfg, registry)
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("NewEngine() = %v, expected ErrInvalidConfiguration", err)
			}
			if registry.loads != 0 {
				t.Errorf("registry loaded %d times before validation, expected 0", registry.loads)
			}
		})
	}
}

func TestNewEngineRegistryError(t *testing.T) {
	registry := &fakeRegistry{err: ErrModelNotFound}
	_, err := NewEngine(validConfig(), registry)
	if !errors.Is(err, ErrModelNotFound) {
		t.Errorf("NewEngine() = %v, expected ErrModelNotFound", err)
	}
}

func TestClassifySeries(t *testing.T) {
	registry := &fakeRegistry{clf: newFakeClassifier()}
	eng, err := NewEngine(validConfig(), registry)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	// 300 samples at 100 Hz with 1 s windows: exactly 3 windows.
	s := triaxialSeries(300, 100)
	preds, err := eng.ClassifySeries(s)
	if err != nil {
		t.Fatalf("ClassifySeries failed: %v", err)
	}
	if len(preds) != 3 {
		t.Fatalf("got %d predictions, expected 3", len(preds))
	}
	for i, p := range preds {
		expected := testutil.SeriesStart.Add(time.Duration(i) * time.Second)
		if !p.Timestamp.Equal(expected) {
			t.Errorf("prediction %d at %v, expected %v", i, p.Timestamp, expected)
		}
		if !IsValidActivity(p.Activity) {
			t.Errorf("prediction %d has unknown activity %q", i, p.Activity)
		}
	}
}

func TestClassifySeriesLowRate(t *testing.T) {
	cfg := validConfig()
	cfg.SamplingFreq = 10

	registry := &fakeRegistry{clf: newFakeClassifier()}
	eng, err := NewEngine(cfg, registry)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	if got := eng.Config().CutoffHz; got != 2.5 {
		t.Errorf("effective CutoffHz = %v, expected 2.5", got)
	}

	// 2 s at 10 Hz: two 10-sample windows, both at the filter minimum.
	s := triaxialSeries(20, 10)
	preds, err := eng.ClassifySeries(s)
	if err != nil {
		t.Fatalf("ClassifySeries failed: %v", err)
	}
	if len(preds) != 2 {
		t.Fatalf("got %d predictions, expected 2", len(preds))
	}
}

func TestRunChunkSizeInvariance(t *testing.T) {
	const windows = 7
	s := triaxialSeries(windows*100, 100)

	classify := func(chunkSize int) []Prediction {
		t.Helper()
		cfg := validConfig()
		cfg.ChunkSize = chunkSize
		registry := &fakeRegistry{clf: newFakeClassifier()}
		eng, err := NewEngine(cfg, registry)
		if err != nil {
			t.Fatalf("NewEngine(chunk=%d) failed: %v", chunkSize, err)
		}
		preds, err := eng.ClassifySeries(s)
		if err != nil {
			t.Fatalf("ClassifySeries(chunk=%d) failed: %v", chunkSize, err)
		}
		return preds
	}

	baseline := classify(windows)
	if len(baseline) != windows {
		t.Fatalf("got %d predictions, expected %d", len(baseline), windows)
	}
	for _, chunkSize := range []int{1, windows - 1, windows + 1, 1000} {
		if diff := cmp.Diff(baseline, classify(chunkSize)); diff != "" {
			t.Errorf("chunk_size=%d predictions differ (-baseline +got):\n%s", chunkSize, diff)
		}
	}
}

func TestRunBatchesPerChunk(t *testing.T) {
	clf := newFakeClassifier()
	registry := &fakeRegistry{clf: clf}
	cfg := validConfig()
	cfg.ChunkSize = 2
	eng, err := NewEngine(cfg, registry)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	s := triaxialSeries(500, 100) // 5 windows, chunks of 2
	if _, err := eng.ClassifySeries(s); err != nil {
		t.Fatalf("ClassifySeries failed: %v", err)
	}
	if clf.batches != 3 {
		t.Errorf("classifier invoked %d times, expected 3", clf.batches)
	}
}

func TestRunInferenceFailure(t *testing.T) {
	clf := newFakeClassifier()
	clf.failAt = 4 // first window of the third chunk
	registry := &fakeRegistry{clf: clf}
	cfg := validConfig()
	cfg.ChunkSize = 2
	eng, err := NewEngine(cfg, registry)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	s := triaxialSeries(700, 100)
	_, err = eng.ClassifySeries(s)

	var chunkErr *ChunkError
	if !errors.As(err, &chunkErr) {
		t.Fatalf("expected *ChunkError, got %v", err)
	}
	if chunkErr.Chunk != 2 {
		t.Errorf("Chunk = %d, expected 2", chunkErr.Chunk)
	}
	if chunkErr.Window != 4 {
		t.Errorf("Window = %d, expected 4", chunkErr.Window)
	}
	if len(chunkErr.Partial) != 4 {
		t.Errorf("Partial holds %d predictions, expected 4 from the first two chunks", len(chunkErr.Partial))
	}
}

func TestRunExtractionFailure(t *testing.T) {
	registry := &fakeRegistry{clf: newFakeClassifier()}
	eng, err := NewEngine(validConfig(), registry)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	// 105 samples: one full window plus a 5-sample trailing window too
	// short for the zero-phase filter.
	s := triaxialSeries(105, 100)
	_, err = eng.ClassifySeries(s)

	var chunkErr *ChunkError
	if !errors.As(err, &chunkErr) {
		t.Fatalf("expected *ChunkError, got %v", err)
	}
	if !errors.Is(err, ErrInsufficientSamples) {
		t.Errorf("expected wrapped ErrInsufficientSamples, got %v", chunkErr.Err)
	}
	if chunkErr.Window != 1 {
		t.Errorf("Window = %d, expected 1", chunkErr.Window)
	}
}

func TestRunLabelCountMismatch(t *testing.T) {
	clf := newFakeClassifier()
	clf.labels = 1
	registry := &fakeRegistry{clf: clf}
	eng, err := NewEngine(validConfig(), registry)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	s := triaxialSeries(300, 100)
	_, err = eng.ClassifySeries(s)

	var chunkErr *ChunkError
	if !errors.As(err, &chunkErr) {
		t.Fatalf("expected *ChunkError, got %v", err)
	}
}

func TestRunEmptySeries(t *testing.T) {
	registry := &fakeRegistry{clf: newFakeClassifier()}
	eng, err := NewEngine(validConfig(), registry)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	preds, err := eng.ClassifySeries(&Series{})
	if err != nil {
		t.Fatalf("ClassifySeries failed: %v", err)
	}
	if len(preds) != 0 {
		t.Errorf("got %d predictions from empty series, expected 0", len(preds))
	}
}
