// Package activity implements the windowing, feature-extraction, and
// chunked-inference pipeline that classifies triaxial accelerometer
// streams into physical activities (walking, running, jumping).
package activity

import (
	"iter"
	"time"
)

// Sample is a single triaxial accelerometer reading. Acceleration values
// are expressed in g. Samples arrive in order; timestamps are assumed
// monotonic non-decreasing but are not validated.
type Sample struct {
	Timestamp time.Time
	X, Y, Z   float64
}

// Series is a canonical column-oriented accelerometer stream. Ingest
// adapters resolve caller-supplied schemas into a Series once, so the
// rest of the pipeline never sees source column names.
type Series struct {
	Timestamps []time.Time
	X, Y, Z    []float64
}

// Append adds one sample to the series.
func (s *Series) Append(sm Sample) {
	s.Timestamps = append(s.Timestamps, sm.Timestamp)
	s.X = append(s.X, sm.X)
	s.Y = append(s.Y, sm.Y)
	s.Z = append(s.Z, sm.Z)
}

// Len returns the number of samples in the series.
func (s *Series) Len() int { return len(s.Timestamps) }

// Sample returns the i-th sample of the series.
func (s *Series) Sample(i int) Sample {
	return Sample{Timestamp: s.Timestamps[i], X: s.X[i], Y: s.Y[i], Z: s.Z[i]}
}

// Window is a contiguous fixed-length slice of the sample stream treated
// as one classification unit. Its axis slices alias the parent series;
// windows are never mutated.
type Window struct {
	// Start is the timestamp of the first sample in the window. It is
	// the representative timestamp attached to the window's prediction.
	Start   time.Time
	X, Y, Z []float64
}

// Len returns the number of samples in the window.
func (w Window) Len() int { return len(w.X) }

// Windows partitions a series into non-overlapping windows of windowLen
// samples, in stream order. Window i covers samples
// [i*windowLen, (i+1)*windowLen). The trailing window is emitted as-is
// when fewer than windowLen samples remain; no padding, no resampling.
// The sequence is restartable by re-ranging over it.
func Windows(s *Series, windowLen int) iter.Seq[Window] {
	return func(yield func(Window) bool) {
		if windowLen <= 0 {
			return
		}
		n := s.Len()
		for start := 0; start < n; start += windowLen {
			end := start + windowLen
			if end > n {
				end = n
			}
			w := Window{
				Start: s.Timestamps[start],
				X:     s.X[start:end:end],
				Y:     s.Y[start:end:end],
				Z:     s.Z[start:end:end],
			}
			if !yield(w) {
				return
			}
		}
	}
}

// WindowCount returns the number of windows Windows will produce for a
// series of n samples: ceil(n/windowLen).
func WindowCount(n, windowLen int) int {
	if windowLen <= 0 || n <= 0 {
		return 0
	}
	return (n + windowLen - 1) / windowLen
}

// Activity is a predicted activity label.
type Activity string

const (
	Walking Activity = "walking"
	Running Activity = "running"
	Jumping Activity = "jumping"
)

// Activities lists the labels a classifier may emit.
var Activities = []Activity{Walking, Running, Jumping}

// IsValidActivity reports whether label is a known activity.
func IsValidActivity(label Activity) bool {
	for _, a := range Activities {
		if a == label {
			return true
		}
	}
	return false
}

// Prediction is one classified window: the timestamp of the window's
// first sample and the predicted activity.
type Prediction struct {
	Timestamp time.Time `json:"timestamp"`
	Activity  Activity  `json:"activity"`
}
