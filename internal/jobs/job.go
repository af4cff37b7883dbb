package jobs

import (
	"context"
	"fmt"

	"github.com/nerrad567/meterlink/internal/reading"
)

// Job names used in logs, the status endpoint and the scheduler.
const (
	NamePower = "power"
	NameGas   = "gas"
	NameHeat  = "heat"
	NameUDP   = "udp"
)

// Deliverer ships one cycle's records. *delivery.Dispatcher implements it.
type Deliverer interface {
	Deliver(ctx context.Context, sensorType string, records []reading.Record) error
}

// RecordCounter is told how many records each run produced.
// *status.Tracker implements it.
type RecordCounter interface {
	RecordsCollected(job string, n int)
}

// Logger defines the logging interface used by jobs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type noopCounter struct{}

func (noopCounter) RecordsCollected(string, int) {}

// base carries what every job shares.
type base struct {
	name      string
	deliverer Deliverer
	logger    Logger
	counter   RecordCounter
}

func newBase(name string, d Deliverer) base {
	return base{
		name:      name,
		deliverer: d,
		logger:    noopLogger{},
		counter:   noopCounter{},
	}
}

// SetLogger sets the job's logger.
func (b *base) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	b.logger = logger
}

// SetCounter sets where record counts are reported.
func (b *base) SetCounter(c RecordCounter) {
	if c == nil {
		c = noopCounter{}
	}
	b.counter = c
}

// Name returns the job name.
func (b *base) Name() string {
	return b.name
}

// finish reports the record count and delivers.
func (b *base) finish(ctx context.Context, sensorType string, records []reading.Record) error {
	b.counter.RecordsCollected(b.name, len(records))
	b.logger.Info("cycle collected",
		"job", b.name,
		"sensor_type", sensorType,
		"records", len(records),
	)
	if err := b.deliverer.Deliver(ctx, sensorType, records); err != nil {
		return fmt.Errorf("%s: delivering %s records: %w", b.name, sensorType, err)
	}
	return nil
}
