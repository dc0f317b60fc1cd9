package activity

import (
	"errors"
	"math"
	"testing"
)

func TestTimeStatsKnownValues(t *testing.T) {
	signal := []float64{1, 2, 3, 4, 5}
	s, err := timeStats("x", signal)
	if err != nil {
		t.Fatalf("timeStats failed: %v", err)
	}

	checks := []struct {
		name     string
		got      float64
		expected float64
	}{
		{"mean", s.Mean, 3},
		{"sd", s.SD, math.Sqrt(2.5)},
		{"cv", s.CoefVar, math.Sqrt(2.5) / 3},
		{"skewness", s.Skewness, 0},
		{"min", s.Min, 1},
		{"p25", s.P25, 2},
		{"median", s.Median, 3},
		{"p75", s.P75, 4},
		{"max", s.Max, 5},
		{"abs_mean", s.AbsMean, 3},
		{"abs_sd", s.AbsSD, math.Sqrt(2.5)},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.expected) > 1e-9 {
			t.Errorf("%s = %v, expected %v", c.name, c.got, c.expected)
		}
	}
}

func TestTimeStatsAbsSeparatesSign(t *testing.T) {
	s, err := timeStats("y", []float64{-2, -1, 1, 2, 5})
	if err != nil {
		t.Fatalf("timeStats failed: %v", err)
	}
	if expected := 1.0; math.Abs(s.Mean-expected) > 1e-9 {
		t.Errorf("mean = %v, expected %v", s.Mean, expected)
	}
	if expected := 2.2; math.Abs(s.AbsMean-expected) > 1e-9 {
		t.Errorf("abs_mean = %v, expected %v", s.AbsMean, expected)
	}
}

func TestTimeStatsDegenerateMean(t *testing.T) {
	_, err := timeStats("z", []float64{-1, 1, -1, 1})
	if !errors.Is(err, ErrDegenerateSignal) {
		t.Errorf("expected ErrDegenerateSignal for zero-mean signal, got %v", err)
	}
}

func TestTimeStatsTooShort(t *testing.T) {
	for _, signal := range [][]float64{nil, {1}} {
		_, err := timeStats("x", signal)
		if !errors.Is(err, ErrInsufficientSamples) {
			t.Errorf("signal %v: expected ErrInsufficientSamples, got %v", signal, err)
		}
	}
}

func TestCorrelation(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{2, 4, 6, 8, 10}
	c := []float64{5, 4, 3, 2, 1}

	r, err := correlation("x", "y", a, b)
	if err != nil {
		t.Fatalf("correlation failed: %v", err)
	}
	if math.Abs(r-1) > 1e-9 {
		t.Errorf("correlation of colinear axes = %v, expected 1", r)
	}

	r, err = correlation("x", "z", a, c)
	if err != nil {
		t.Fatalf("correlation failed: %v", err)
	}
	if math.Abs(r+1) > 1e-9 {
		t.Errorf("correlation of anti-colinear axes = %v, expected -1", r)
	}
}

func TestCorrelationConstantAxis(t *testing.T) {
	varying := []float64{1, 2, 3, 4}
	constant := []float64{7, 7, 7, 7}

	if _, err := correlation("x", "y", constant, varying); !errors.Is(err, ErrUndefinedCorrelation) {
		t.Errorf("constant first axis: expected ErrUndefinedCorrelation, got %v", err)
	}
	if _, err := correlation("x", "y", varying, constant); !errors.Is(err, ErrUndefinedCorrelation) {
		t.Errorf("constant second axis: expected ErrUndefinedCorrelation, got %v", err)
	}
}
