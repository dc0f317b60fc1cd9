package activity

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// FeatureVector is one window's numeric summary in the canonical
// feature order given by FeatureNames. Classifier artifacts are
// checked against that schema at load time.
type FeatureVector []float64

// NumFeatures is the length of every feature vector: twelve
// time-domain stats per axis, four frequency-domain stats per axis,
// three cross-axis correlations, and three mean orientation angles.
const NumFeatures = 54

var axisNames = []string{"x", "y", "z"}

var timeStatNames = []string{
	"mean", "sd", "cv", "skewness", "kurtosis",
	"min", "p25", "median", "p75", "max",
	"abs_mean", "abs_sd",
}

var spectralStatNames = []string{
	"dominant_freq", "dominant_mag", "total_power", "median_freq",
}

var featureNames = buildFeatureNames()

func buildFeatureNames() []string {
	names := make([]string, 0, NumFeatures)
	for _, ax := range axisNames {
		for _, st := range timeStatNames {
			names = append(names, ax+"_"+st)
		}
	}
	for _, ax := range axisNames {
		for _, st := range spectralStatNames {
			names = append(names, ax+"_"+st)
		}
	}
	names = append(names, "corr_xy", "corr_xz", "corr_yz")
	names = append(names, "roll_mean", "pitch_mean", "yaw_mean")
	return names
}

// FeatureNames returns the canonical feature schema: twelve time-domain
// stats per axis, four frequency-domain stats per axis, the three
// cross-axis correlations, then the three mean orientation angles.
// The returned slice is a copy.
func FeatureNames() []string {
	return append([]string(nil), featureNames...)
}

// FeatureExtractor computes one FeatureVector per window of triaxial
// data. The low-pass filter is applied to each axis independently
// before the orientation angles are derived.
type FeatureExtractor struct {
	SamplingFreq float64
	Filter       *SignalFilter
}

// NewFeatureExtractor returns an extractor for streams sampled at
// samplingFreq Hz, using the default orientation filter cutoff.
func NewFeatureExtractor(samplingFreq float64) *FeatureExtractor {
	return &FeatureExtractor{
		SamplingFreq: samplingFreq,
		Filter:       NewSignalFilter(DefaultCutoffHz),
	}
}

// Extract computes the feature vector for one window. The three axis
// slices must have equal length. Short windows fail with
// ErrInsufficientSamples; degenerate statistics fail with
// ErrDegenerateSignal or ErrUndefinedCorrelation.
func (fe *FeatureExtractor) Extract(x, y, z []float64) (FeatureVector, error) {
	if len(x) != len(y) || len(x) != len(z) {
		return nil, fmt.Errorf("axis length mismatch: x=%d y=%d z=%d", len(x), len(y), len(z))
	}
	if len(x) < fe.Filter.MinSamples() {
		return nil, fmt.Errorf("%w: window has %d samples, need at least %d",
			ErrInsufficientSamples, len(x), fe.Filter.MinSamples())
	}

	fv := make(FeatureVector, 0, NumFeatures)

	for i, axis := range [][]float64{x, y, z} {
		ts, err := timeStats(axisNames[i], axis)
		if err != nil {
			return nil, err
		}
		fv = append(fv,
			ts.Mean, ts.SD, ts.CoefVar, ts.Skewness, ts.Kurtosis,
			ts.Min, ts.P25, ts.Median, ts.P75, ts.Max,
			ts.AbsMean, ts.AbsSD,
		)
	}

	for i, axis := range [][]float64{x, y, z} {
		ss, err := spectralStats(axis, fe.SamplingFreq)
		if err != nil {
			return nil, fmt.Errorf("axis %s: %w", axisNames[i], err)
		}
		fv = append(fv, ss.DominantFreq, ss.DominantMag, ss.TotalPower, ss.MedianFreq)
	}

	for _, pair := range [][2]int{{0, 1}, {0, 2}, {1, 2}} {
		axes := [][]float64{x, y, z}
		r, err := correlation(axisNames[pair[0]], axisNames[pair[1]], axes[pair[0]], axes[pair[1]])
		if err != nil {
			return nil, err
		}
		fv = append(fv, r)
	}

	roll, pitch, yaw, err := fe.orientation(x, y, z)
	if err != nil {
		return nil, err
	}
	fv = append(fv, roll, pitch, yaw)

	return fv, nil
}

// orientation low-passes each axis to isolate gravity, derives per-sample
// roll, pitch, and yaw, and returns the mean of each angle over the
// window. Angles are in radians.
func (fe *FeatureExtractor) orientation(x, y, z []float64) (roll, pitch, yaw float64, err error) {
	fx, err := fe.Filter.Filter(x, fe.SamplingFreq)
	if err != nil {
		return 0, 0, 0, err
	}
	fy, err := fe.Filter.Filter(y, fe.SamplingFreq)
	if err != nil {
		return 0, 0, 0, err
	}
	fz, err := fe.Filter.Filter(z, fe.SamplingFreq)
	if err != nil {
		return 0, 0, 0, err
	}

	n := len(fx)
	rolls := make([]float64, n)
	pitches := make([]float64, n)
	yaws := make([]float64, n)
	for i := 0; i < n; i++ {
		ax, ay, az := fx[i], fy[i], fz[i]
		rolls[i] = math.Atan2(ay, math.Sqrt(ax*ax+az*az))
		pitches[i] = math.Atan2(-ax, math.Sqrt(ay*ay+az*az))
		yaws[i] = math.Atan2(az, math.Sqrt(ax*ax+ay*ay))
	}
	return stat.Mean(rolls, nil), stat.Mean(pitches, nil), stat.Mean(yaws, nil), nil
}
