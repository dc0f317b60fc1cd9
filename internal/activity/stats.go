package activity

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// degenerateMeanEps is the |mean| below which coefficient of variation
// is treated as undefined rather than divided through.
const degenerateMeanEps = 1e-12

// TimeStats holds the twelve per-axis time-domain features.
type TimeStats struct {
	Mean     float64
	SD       float64
	CoefVar  float64 // SD / Mean
	Skewness float64
	Kurtosis float64 // excess kurtosis
	Min      float64
	P25      float64
	Median   float64
	P75      float64
	Max      float64
	AbsMean  float64 // mean of |v|
	AbsSD    float64 // standard deviation of |v|
}

// timeStats computes the time-domain summary of one axis. A near-zero
// mean makes the coefficient of variation undefined and fails with
// ErrDegenerateSignal; nothing in this package silently returns NaN.
func timeStats(axis string, signal []float64) (TimeStats, error) {
	if len(signal) < 2 {
		return TimeStats{}, fmt.Errorf("%w: axis %s has %d samples, need at least 2", ErrInsufficientSamples, axis, len(signal))
	}

	var s TimeStats
	s.Mean = stat.Mean(signal, nil)
	s.SD = stat.StdDev(signal, nil)
	if math.Abs(s.Mean) < degenerateMeanEps {
		return TimeStats{}, fmt.Errorf("%w: axis %s mean is ~0, coefficient of variation undefined", ErrDegenerateSignal, axis)
	}
	s.CoefVar = s.SD / s.Mean
	s.Skewness = stat.Skew(signal, nil)
	s.Kurtosis = stat.ExKurtosis(signal, nil)

	sorted := append([]float64(nil), signal...)
	sort.Float64s(sorted)
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.P25 = stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	s.Median = stat.Quantile(0.5, stat.LinInterp, sorted, nil)
	s.P75 = stat.Quantile(0.75, stat.LinInterp, sorted, nil)

	abs := make([]float64, len(signal))
	for i, v := range signal {
		abs[i] = math.Abs(v)
	}
	s.AbsMean = stat.Mean(abs, nil)
	s.AbsSD = stat.StdDev(abs, nil)
	return s, nil
}

// correlation computes the Pearson correlation of two axes. Either axis
// having zero variance makes the coefficient undefined.
func correlation(nameA, nameB string, a, b []float64) (float64, error) {
	if stat.Variance(a, nil) == 0 {
		return 0, fmt.Errorf("%w: axis %s is constant", ErrUndefinedCorrelation, nameA)
	}
	if stat.Variance(b, nil) == 0 {
		return 0, fmt.Errorf("%w: axis %s is constant", ErrUndefinedCorrelation, nameB)
	}
	return stat.Correlation(a, b, nil), nil
}
