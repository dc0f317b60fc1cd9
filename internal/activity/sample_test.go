package activity

import (
	"testing"
	"time"
)

func makeSeries(n int) *Series {
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	s := &Series{}
	for i := 0; i < n; i++ {
		s.Append(Sample{
			Timestamp: start.Add(time.Duration(i) * 10 * time.Millisecond),
			X:         float64(i),
			Y:         float64(i) + 0.1,
			Z:         float64(i) + 0.2,
		})
	}
	return s
}

func collectWindows(s *Series, windowLen int) []Window {
	var out []Window
	for w := range Windows(s, windowLen) {
		out = append(out, w)
	}
	return out
}

func TestWindowCount(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		windowLen int
		expected  int
	}{
		{"exact multiple", 300, 100, 3},
		{"one short trailing window", 305, 100, 4},
		{"single partial window", 5, 100, 1},
		{"one sample per window", 7, 1, 7},
		{"empty series", 0, 100, 0},
		{"zero window length", 300, 0, 0},
		{"negative window length", 300, -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WindowCount(tt.n, tt.windowLen); got != tt.expected {
				t.Errorf("WindowCount(%d, %d) = %d, expected %d", tt.n, tt.windowLen, got, tt.expected)
			}
		})
	}
}

func TestWindowsPartition(t *testing.T) {
	s := makeSeries(305)
	windows := collectWindows(s, 100)

	if len(windows) != 4 {
		t.Fatalf("got %d windows, expected 4", len(windows))
	}
	for i, w := range windows[:3] {
		if w.Len() != 100 {
			t.Errorf("window %d has %d samples, expected 100", i, w.Len())
		}
	}
	if windows[3].Len() != 5 {
		t.Errorf("trailing window has %d samples, expected 5", windows[3].Len())
	}

	// Concatenating the windows in order must reconstruct the series.
	idx := 0
	for wi, w := range windows {
		if !w.Start.Equal(s.Timestamps[idx]) {
			t.Errorf("window %d starts at %v, expected %v", wi, w.Start, s.Timestamps[idx])
		}
		for j := 0; j < w.Len(); j++ {
			if w.X[j] != s.X[idx] || w.Y[j] != s.Y[idx] || w.Z[j] != s.Z[idx] {
				t.Fatalf("window %d sample %d does not match series sample %d", wi, j, idx)
			}
			idx++
		}
	}
	if idx != s.Len() {
		t.Errorf("windows cover %d samples, expected %d", idx, s.Len())
	}
}

func TestWindowsMatchesWindowCount(t *testing.T) {
	for _, n := range []int{0, 1, 99, 100, 101, 250, 300} {
		s := makeSeries(n)
		got := len(collectWindows(s, 100))
		if expected := WindowCount(n, 100); got != expected {
			t.Errorf("n=%d: got %d windows, WindowCount says %d", n, got, expected)
		}
	}
}

func TestWindowsRestartable(t *testing.T) {
	s := makeSeries(250)
	seq := Windows(s, 100)

	first := 0
	for range seq {
		first++
	}
	second := 0
	for range seq {
		second++
	}
	if first != second || first != 3 {
		t.Errorf("first pass yielded %d windows, second %d, expected 3 each", first, second)
	}
}

func TestWindowsEarlyStop(t *testing.T) {
	s := makeSeries(500)
	count := 0
	for range Windows(s, 100) {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Errorf("consumed %d windows after break, expected 2", count)
	}
}

func TestWindowsAliasSeries(t *testing.T) {
	s := makeSeries(200)
	windows := collectWindows(s, 100)

	// Windows are views over the series, not copies.
	s.X[150] = 999
	if windows[1].X[50] != 999 {
		t.Error("window did not observe series mutation; expected shared backing array")
	}
}

func TestIsValidActivity(t *testing.T) {
	for _, a := range Activities {
		if !IsValidActivity(a) {
			t.Errorf("IsValidActivity(%q) = false, expected true", a)
		}
	}
	for _, a := range []Activity{"", "swimming", "WALKING"} {
		if IsValidActivity(a) {
			t.Errorf("IsValidActivity(%q) = true, expected false", a)
		}
	}
}
