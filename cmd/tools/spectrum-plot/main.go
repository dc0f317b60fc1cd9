// Command spectrum-plot renders the half-spectrum of one window of a
// CSV stream as a PNG, for eyeballing filter and FFT behaviour.
package main

import (
	"flag"
	"log"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/verasls/activity-recognition/internal/activity"
	"github.com/verasls/activity-recognition/internal/ingest"
)

var (
	inputPath    = flag.String("input", "", "CSV file to read")
	samplingFreq = flag.Float64("sampling-freq", 0, "Sampling frequency in Hz")
	windowSize   = flag.Float64("window-size", 1, "Window duration in seconds")
	windowIdx    = flag.Int("window", 0, "Zero-based window index to plot")
	axis         = flag.String("axis", "x", "Axis to plot: x, y, or z")
	outPath      = flag.String("out", "spectrum.png", "Output PNG file")
)

func main() {
	flag.Parse()
	if *inputPath == "" || *samplingFreq <= 0 {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(*inputPath)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	series, err := ingest.ReadCSV(f, ingest.CSVOptions{})
	if err != nil {
		log.Fatalf("reading %s: %v", *inputPath, err)
	}

	windowLen := int(*windowSize * *samplingFreq)
	var target activity.Window
	found := false
	i := 0
	for w := range activity.Windows(series, windowLen) {
		if i == *windowIdx {
			target = w
			found = true
			break
		}
		i++
	}
	if !found {
		log.Fatalf("window %d out of range, stream has %d windows",
			*windowIdx, activity.WindowCount(series.Len(), windowLen))
	}

	signal := target.X
	switch *axis {
	case "x":
	case "y":
		signal = target.Y
	case "z":
		signal = target.Z
	default:
		log.Fatalf("unknown axis %q", *axis)
	}

	freqs, mags, err := activity.Spectrum(signal, *samplingFreq)
	if err != nil {
		log.Fatal(err)
	}

	pts := make(plotter.XYs, len(freqs))
	for k := range freqs {
		pts[k].X = freqs[k]
		pts[k].Y = mags[k]
	}

	p := plot.New()
	p.Title.Text = "Window spectrum"
	p.X.Label.Text = "Frequency (Hz)"
	p.Y.Label.Text = "Magnitude"

	line, err := plotter.NewLine(pts)
	if err != nil {
		log.Fatal(err)
	}
	p.Add(line)
	p.Add(plotter.NewGrid())

	if err := p.Save(8*vg.Inch, 4*vg.Inch, *outPath); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %s", *outPath)
}
