package ingest

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.bug.st/serial"

	"github.com/verasls/activity-recognition/internal/activity"
	"github.com/verasls/activity-recognition/internal/monitoring"
	"github.com/verasls/activity-recognition/internal/timeutil"
	"github.com/verasls/activity-recognition/internal/units"
)

// SensorPort streams accelerometer samples from a serial-attached
// sensor emitting one comma-separated "x,y,z" reading per line.
// Readings without their own clock are stamped on arrival.
type SensorPort struct {
	port    serial.Port
	clock   timeutil.Clock
	units   string
	samples chan activity.Sample
}

// OpenSensorPort opens portName at the given baud rate. sourceUnits is
// the unit of the incoming axis values; empty means g.
func OpenSensorPort(portName string, baudRate int, sourceUnits string) (*SensorPort, error) {
	if sourceUnits == "" {
		sourceUnits = units.G
	}
	if !units.IsValid(sourceUnits) {
		return nil, fmt.Errorf("unknown units %q, valid units are: %s", sourceUnits, units.GetValidUnitsString())
	}

	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: 1,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, err
	}
	return &SensorPort{
		port:    port,
		clock:   timeutil.RealClock{},
		units:   sourceUnits,
		samples: make(chan activity.Sample),
	}, nil
}

// Samples returns the channel Monitor delivers parsed readings on.
func (p *SensorPort) Samples() <-chan activity.Sample {
	return p.samples
}

// Close closes the serial port.
func (p *SensorPort) Close() error {
	return p.port.Close()
}

// SetClock replaces the timestamp source.
func (p *SensorPort) SetClock(c timeutil.Clock) { p.clock = c }

// Monitor reads lines from the port until the context is cancelled or
// the port closes, delivering parsed samples to the Samples channel.
// Unparseable lines are logged and skipped.
func (p *SensorPort) Monitor(ctx context.Context) error {
	defer p.Close()
	scan := bufio.NewScanner(p.port)

	for scan.Scan() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		sample, err := p.parseLine(scan.Text())
		if err != nil {
			monitoring.Logf("skipping serial line: %v", err)
			continue
		}

		select {
		case p.samples <- sample:
		case <-ctx.Done():
			return nil
		}
	}
	return scan.Err()
}

// parseLine parses an "x,y,z" or "ts,x,y,z" reading.
func (p *SensorPort) parseLine(line string) (activity.Sample, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")

	var sample activity.Sample
	switch len(fields) {
	case 3:
		sample.Timestamp = p.clock.Now()
	case 4:
		ts, err := ParseTimestamp(fields[0])
		if err != nil {
			return activity.Sample{}, fmt.Errorf("line %q: %w", line, err)
		}
		sample.Timestamp = ts
		fields = fields[1:]
	default:
		return activity.Sample{}, fmt.Errorf("line %q: want 3 or 4 fields, got %d", line, len(fields))
	}

	axes := [3]*float64{&sample.X, &sample.Y, &sample.Z}
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return activity.Sample{}, fmt.Errorf("line %q: %w", line, err)
		}
		*axes[i] = units.ConvertToG(v, p.units)
	}
	return sample, nil
}
