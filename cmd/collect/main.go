// Command collect captures accelerometer samples from a serial-attached
// sensor and writes them as CSV suitable for classification.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/verasls/activity-recognition/internal/ingest"
)

var (
	portName = flag.String("port", "/dev/ttyUSB0", "Serial port of the sensor")
	baudRate = flag.Int("baud", 115200, "Baud rate")
	outPath  = flag.String("out", "capture.csv", "Output CSV file")
	units    = flag.String("units", "", "Acceleration units emitted by the sensor: g, mg, or ms2 (default g)")
)

func main() {
	flag.Parse()

	port, err := ingest.OpenSensorPort(*portName, *baudRate, *units)
	if err != nil {
		log.Fatalf("opening %s: %v", *portName, err)
	}

	out, err := os.Create(*outPath)
	if err != nil {
		log.Fatal(err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write([]string{"timestamp", "x", "y", "z"}); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := port.Monitor(ctx); err != nil {
			log.Printf("serial monitor stopped: %v", err)
		}
		stop()
	}()

	count := 0
	for {
		select {
		case <-ctx.Done():
			w.Flush()
			if err := w.Error(); err != nil {
				log.Fatal(err)
			}
			log.Printf("wrote %d samples to %s", count, *outPath)
			return
		case sample := <-port.Samples():
			record := []string{
				sample.Timestamp.UTC().Format(time.RFC3339Nano),
				strconv.FormatFloat(sample.X, 'g', -1, 64),
				strconv.FormatFloat(sample.Y, 'g', -1, 64),
				strconv.FormatFloat(sample.Z, 'g', -1, 64),
			}
			if err := w.Write(record); err != nil {
				log.Fatal(err)
			}
			count++
		}
	}
}
