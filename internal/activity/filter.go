package activity

import (
	"fmt"
	"math"
)

// DefaultCutoffHz is the low-pass cutoff used to isolate the gravity
// component before computing orientation angles.
const DefaultCutoffHz = 5.0

// padLen is the number of reflected samples prepended and appended
// before forward-backward filtering, 3x the filter coefficient count.
// Signals must be longer than padLen to filter stably.
const padLen = 9

// SignalFilter is a zero-phase low-pass filter: a second-order
// Butterworth applied forward and then backward, giving a fourth-order
// magnitude response with no phase distortion. The cutoff is normalized
// by the Nyquist frequency at filter time.
type SignalFilter struct {
	CutoffHz float64
}

// NewSignalFilter returns a filter with the given cutoff in Hz.
func NewSignalFilter(cutoffHz float64) *SignalFilter {
	return &SignalFilter{CutoffHz: cutoffHz}
}

// MinSamples is the shortest signal Filter accepts.
func (f *SignalFilter) MinSamples() int { return padLen + 1 }

// Filter applies the zero-phase low-pass to signal and returns a new
// slice of equal length. The input is not modified. Signals of
// MinSamples()-1 or fewer samples fail with ErrInsufficientSamples.
func (f *SignalFilter) Filter(signal []float64, samplingFreq float64) ([]float64, error) {
	nyquist := samplingFreq / 2
	if samplingFreq <= 0 || f.CutoffHz <= 0 || f.CutoffHz >= nyquist {
		return nil, fmt.Errorf("%w: cutoff %.3g Hz outside (0, %.3g) for sampling frequency %.3g Hz",
			ErrInvalidConfiguration, f.CutoffHz, nyquist, samplingFreq)
	}
	n := len(signal)
	if n <= padLen {
		return nil, fmt.Errorf("%w: %d samples, need at least %d to filter", ErrInsufficientSamples, n, padLen+1)
	}

	b, a := butterLowPass(f.CutoffHz, samplingFreq)

	// Odd-reflect the signal about both endpoints so the filter settles
	// before it reaches real data.
	ext := make([]float64, 0, n+2*padLen)
	for i := padLen; i >= 1; i-- {
		ext = append(ext, 2*signal[0]-signal[i])
	}
	ext = append(ext, signal...)
	for i := n - 2; i >= n-1-padLen; i-- {
		ext = append(ext, 2*signal[n-1]-signal[i])
	}

	// Forward pass, then reverse and filter again to cancel phase lag.
	out := biquad(b, a, ext)
	reverse(out)
	out = biquad(b, a, out)
	reverse(out)

	return append([]float64(nil), out[padLen:padLen+n]...), nil
}

// butterLowPass designs a second-order Butterworth low-pass via the
// bilinear transform. Coefficients are normalized so a[0] == 1.
func butterLowPass(cutoffHz, samplingFreq float64) (b, a [3]float64) {
	k := math.Tan(math.Pi * cutoffHz / samplingFreq)
	norm := 1 / (1 + math.Sqrt2*k + k*k)
	b[0] = k * k * norm
	b[1] = 2 * b[0]
	b[2] = b[0]
	a[0] = 1
	a[1] = 2 * (k*k - 1) * norm
	a[2] = (1 - math.Sqrt2*k + k*k) * norm
	return b, a
}

// biquad runs a direct-form-II-transposed second-order filter over x.
// Initial state is the filter's step-response steady state scaled by
// x[0], so a constant signal passes through unchanged from sample zero.
func biquad(b, a [3]float64, x []float64) []float64 {
	z1 := (1 - b[0]) * x[0]
	z2 := (b[2] - a[2]) * x[0]

	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = b[0]*v + z1
		z1 = b[1]*v - a[1]*y[i] + z2
		z2 = b[2]*v - a[2]*y[i]
	}
	return y
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
