// Package testutil provides shared test helpers and synthetic signal
// fixtures.
package testutil

import (
	"math"
	"testing"
	"time"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// Sinusoid generates n samples of offset + amp*sin(2*pi*freq*t) at
// samplingFreq Hz.
func Sinusoid(n int, freq, samplingFreq, amp, offset float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		t := float64(i) / samplingFreq
		out[i] = offset + amp*math.Sin(2*math.Pi*freq*t)
	}
	return out
}

// SeriesStart is the timestamp of the first sample of every synthetic
// series.
var SeriesStart = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

// TriaxialSeries builds n samples of synthetic triaxial data at
// samplingFreq Hz with distinct oscillations plus distinct offsets per
// axis, so every feature (correlations and coefficients of variation
// included) is well defined. Returned as raw columns so packages can
// assemble their own stream types from it.
func TriaxialSeries(n int, samplingFreq float64) (timestamps []time.Time, x, y, z []float64) {
	x = Sinusoid(n, 1.0, samplingFreq, 0.4, 0.2)
	y = Sinusoid(n, 2.0, samplingFreq, 0.3, 1.0)
	z = Sinusoid(n, 3.0, samplingFreq, 0.2, -0.5)
	interval := time.Duration(float64(time.Second) / samplingFreq)
	timestamps = make([]time.Time, n)
	for i := range timestamps {
		timestamps[i] = SeriesStart.Add(time.Duration(i) * interval)
	}
	return timestamps, x, y, z
}
