package activity

import (
	"errors"
	"fmt"
)

// Degenerate inputs are surfaced as explicit errors rather than letting
// NaN feature values reach the classifier. Any one of them aborts the
// run; the engine wraps them with chunk and window context.
var (
	// ErrInvalidConfiguration indicates a bad placement, model type, or
	// numeric parameter. Reported before any samples are processed.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInsufficientSamples indicates a signal too short for the
	// zero-phase filter to run stably.
	ErrInsufficientSamples = errors.New("insufficient samples")

	// ErrDegenerateSignal indicates a statistic that is undefined for
	// the input, such as coefficient of variation with a near-zero mean.
	ErrDegenerateSignal = errors.New("degenerate signal")

	// ErrUndefinedCorrelation indicates a Pearson correlation requested
	// against a zero-variance axis.
	ErrUndefinedCorrelation = errors.New("undefined correlation")

	// ErrModelNotFound indicates no model artifact exists for the
	// requested (placement, model_type) pair.
	ErrModelNotFound = errors.New("model not found")
)

// ChunkError wraps a failure inside chunked inference with the chunk and
// window indices where it occurred. Predictions completed in prior
// chunks are preserved in Partial.
type ChunkError struct {
	Chunk   int // zero-based chunk index
	Window  int // zero-based window index within the run
	Partial []Prediction
	Err     error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d, window %d: %v", e.Chunk, e.Window, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }
