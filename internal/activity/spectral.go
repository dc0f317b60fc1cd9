package activity

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// SpectralStats summarizes the non-negative-frequency half of a
// window's discrete Fourier transform.
type SpectralStats struct {
	DominantFreq float64 // frequency bin with maximum magnitude (Hz)
	DominantMag  float64 // magnitude at that bin
	TotalPower   float64 // sum of squared magnitudes divided by n
	MedianFreq   float64 // frequency splitting cumulative power at 0.5
}

// Spectrum computes the half-spectrum magnitudes of signal and the
// frequency of each bin. The returned slices have length floor(n/2)+1;
// bin k maps to k*(samplingFreq/2)/floor(n/2) Hz.
func Spectrum(signal []float64, samplingFreq float64) (freqs, mags []float64, err error) {
	n := len(signal)
	if n < 2 {
		return nil, nil, fmt.Errorf("%w: %d samples, need at least 2 for a spectrum", ErrInsufficientSamples, n)
	}

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, signal)

	half := n / 2
	freqs = make([]float64, len(coeffs))
	mags = make([]float64, len(coeffs))
	binWidth := samplingFreq / 2 / float64(half)
	for k, c := range coeffs {
		freqs[k] = float64(k) * binWidth
		mags[k] = cmplx.Abs(c)
	}
	return freqs, mags, nil
}

// spectralStats derives the four frequency-domain features of one axis.
func spectralStats(signal []float64, samplingFreq float64) (SpectralStats, error) {
	freqs, mags, err := Spectrum(signal, samplingFreq)
	if err != nil {
		return SpectralStats{}, err
	}

	var s SpectralStats
	var total float64
	domIdx := 0
	for k, m := range mags {
		// Strict > keeps the lowest-frequency bin on ties.
		if m > mags[domIdx] {
			domIdx = k
		}
		total += m * m
	}
	s.DominantFreq = freqs[domIdx]
	s.DominantMag = mags[domIdx]
	s.TotalPower = total / float64(len(signal))

	// Median frequency: the bin whose cumulative normalized power comes
	// closest to 0.5, walking from DC upward. Ties keep the lower index.
	if total > 0 {
		medIdx := 0
		best := math.Inf(1)
		var cum float64
		for k, m := range mags {
			cum += m * m
			if d := math.Abs(cum/total - 0.5); d < best {
				best = d
				medIdx = k
			}
		}
		s.MedianFreq = freqs[medIdx]
	}
	return s, nil
}
