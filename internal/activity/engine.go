package activity

import (
	"fmt"
	"iter"
	"strings"

	"github.com/verasls/activity-recognition/internal/monitoring"
)

// Accelerometer placements with trained model variants.
const (
	PlacementAnkle     = "ankle"
	PlacementLowerBack = "lower_back"
	PlacementHip       = "hip"
)

// Classifier families with trained artifacts.
const (
	ModelRF  = "rf"
	ModelSVM = "svm"
	ModelKNN = "knn"
)

// ValidPlacements lists the accepted placement values.
var ValidPlacements = []string{PlacementAnkle, PlacementLowerBack, PlacementHip}

// ValidModelTypes lists the accepted model_type values.
var ValidModelTypes = []string{ModelRF, ModelSVM, ModelKNN}

// IsValidPlacement reports whether placement is recognized.
func IsValidPlacement(placement string) bool {
	return contains(ValidPlacements, placement)
}

// IsValidModelType reports whether modelType is recognized.
func IsValidModelType(modelType string) bool {
	return contains(ValidModelTypes, modelType)
}

func contains(valid []string, v string) bool {
	for _, s := range valid {
		if s == v {
			return true
		}
	}
	return false
}

// Classifier maps batches of feature vectors to activity labels. It is
// immutable for the duration of a run and safe for concurrent reads.
type Classifier interface {
	// Predict returns one label per feature vector, in order.
	Predict(batch []FeatureVector) ([]Activity, error)

	// Name identifies the model artifact for logging.
	Name() string
}

// ModelRegistry resolves a (placement, model_type) pair to a loaded
// classifier. Implementations should cache handles across calls.
type ModelRegistry interface {
	Load(placement, modelType string) (Classifier, error)
}

// Config carries the recognized classification options.
type Config struct {
	SamplingFreq float64 // Hz, required
	Placement    string  // ankle, lower_back, or hip
	ModelType    string  // rf, svm, or knn
	WindowSize   float64 // seconds per window, default 1
	ChunkSize    int     // windows per inference batch, default 1000
	CutoffHz     float64 // orientation filter cutoff, default DefaultCutoffHz
}

// Defaults for optional Config fields.
const (
	DefaultWindowSize = 1.0
	DefaultChunkSize  = 1000
)

// withDefaults fills unset optional fields.
func (c Config) withDefaults() Config {
	if c.WindowSize == 0 {
		c.WindowSize = DefaultWindowSize
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.CutoffHz == 0 {
		c.CutoffHz = DefaultCutoffHz
		// At low sampling rates the stock cutoff would sit on or above
		// the Nyquist frequency; fall back to a quarter of the rate.
		if c.SamplingFreq > 0 && c.CutoffHz >= c.SamplingFreq/2 {
			c.CutoffHz = c.SamplingFreq / 4
		}
	}
	return c
}

// Validate checks the configuration and returns ErrInvalidConfiguration
// describing every problem found.
func (c Config) Validate() error {
	var problems []string
	if c.SamplingFreq <= 0 {
		problems = append(problems, fmt.Sprintf("sampling_freq must be positive, got %g", c.SamplingFreq))
	}
	if !IsValidPlacement(c.Placement) {
		problems = append(problems, fmt.Sprintf("placement %q not one of %s", c.Placement, strings.Join(ValidPlacements, ", ")))
	}
	if !IsValidModelType(c.ModelType) {
		problems = append(problems, fmt.Sprintf("model_type %q not one of %s", c.ModelType, strings.Join(ValidModelTypes, ", ")))
	}
	if c.WindowSize < 0 {
		problems = append(problems, fmt.Sprintf("window_size must be positive, got %g", c.WindowSize))
	}
	if c.ChunkSize < 0 {
		problems = append(problems, fmt.Sprintf("chunk_size must be positive, got %d", c.ChunkSize))
	}
	if c.CutoffHz < 0 {
		problems = append(problems, fmt.Sprintf("cutoff must be positive, got %g", c.CutoffHz))
	}
	if c.SamplingFreq > 0 && c.CutoffHz >= c.SamplingFreq/2 {
		problems = append(problems, fmt.Sprintf("cutoff %g Hz must be below the Nyquist frequency %g Hz", c.CutoffHz, c.SamplingFreq/2))
	}
	if c.SamplingFreq > 0 && c.WindowSize > 0 && int(c.WindowSize*c.SamplingFreq) < 1 {
		problems = append(problems, fmt.Sprintf("window of %gs at %g Hz holds no samples", c.WindowSize, c.SamplingFreq))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfiguration, strings.Join(problems, "; "))
	}
	return nil
}

// WindowLength returns the window size in samples.
func (c Config) WindowLength() int {
	c = c.withDefaults()
	return int(c.WindowSize * c.SamplingFreq)
}

// Engine groups windows into chunks, extracts one feature vector per
// window, batch-invokes the classifier once per chunk, and assembles
// timestamped predictions in window order. Chunks are processed
// sequentially; the classifier is shared read-only state.
type Engine struct {
	cfg       Config
	extractor *FeatureExtractor
	clf       Classifier
}

// NewEngine validates cfg and resolves the classifier from the
// registry. Validation happens before any model loading, so a bad
// placement or model type never touches the registry.
func NewEngine(cfg Config, registry ModelRegistry) (*Engine, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	clf, err := registry.Load(cfg.Placement, cfg.ModelType)
	if err != nil {
		return nil, fmt.Errorf("loading model %s/%s: %w", cfg.Placement, cfg.ModelType, err)
	}
	extractor := NewFeatureExtractor(cfg.SamplingFreq)
	extractor.Filter = NewSignalFilter(cfg.CutoffHz)
	return &Engine{cfg: cfg, extractor: extractor, clf: clf}, nil
}

// Config returns the engine's effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// ClassifySeries windows the series and runs chunked inference over it.
func (e *Engine) ClassifySeries(s *Series) ([]Prediction, error) {
	return e.Run(Windows(s, e.cfg.WindowLength()))
}

// Run consumes the window sequence and returns one prediction per
// window, in input order, regardless of how windows fall across chunk
// boundaries. Only one chunk of feature vectors is materialized at a
// time. Any extraction or inference failure is fatal to the run and is
// returned as a *ChunkError carrying the failing chunk and window
// indices plus the predictions completed in prior chunks.
func (e *Engine) Run(windows iter.Seq[Window]) ([]Prediction, error) {
	var (
		predictions []Prediction
		chunk       []Window
		chunkIdx    int
		windowIdx   int
	)

	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		firstWindow := windowIdx - len(chunk)

		features := make([]FeatureVector, len(chunk))
		for i, w := range chunk {
			fv, err := e.extractor.Extract(w.X, w.Y, w.Z)
			if err != nil {
				return &ChunkError{Chunk: chunkIdx, Window: firstWindow + i, Partial: predictions, Err: err}
			}
			features[i] = fv
		}

		labels, err := e.clf.Predict(features)
		if err != nil {
			return &ChunkError{Chunk: chunkIdx, Window: firstWindow, Partial: predictions, Err: err}
		}
		if len(labels) != len(chunk) {
			return &ChunkError{
				Chunk: chunkIdx, Window: firstWindow, Partial: predictions,
				Err: fmt.Errorf("classifier %s returned %d labels for %d windows", e.clf.Name(), len(labels), len(chunk)),
			}
		}

		for i, w := range chunk {
			predictions = append(predictions, Prediction{Timestamp: w.Start, Activity: labels[i]})
		}
		monitoring.Logf("classified chunk %d (%d windows, %d total)", chunkIdx, len(chunk), len(predictions))
		chunkIdx++
		chunk = chunk[:0]
		return nil
	}

	for w := range windows {
		chunk = append(chunk, w)
		windowIdx++
		if len(chunk) == e.cfg.ChunkSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return predictions, nil
}
