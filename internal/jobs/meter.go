package jobs

import (
	"context"
	"fmt"

	"github.com/nerrad567/meterlink/internal/catalog"
	"github.com/nerrad567/meterlink/internal/reading"
)

// MeterReader reads a set of standalone meters. *collect.MeterCollector
// implements it.
type MeterReader interface {
	SensorType() string
	Collect(ctx context.Context, points []catalog.MeterPoint) ([]reading.Record, error)
}

// MeterJob collects gas or heat meters.
type MeterJob struct {
	base
	points []catalog.MeterPoint
	reader MeterReader
}

// NewMeterJob creates a meter job named name over points.
func NewMeterJob(name string, points []catalog.MeterPoint, reader MeterReader, d Deliverer) *MeterJob {
	return &MeterJob{
		base:   newBase(name, d),
		points: points,
		reader: reader,
	}
}

// Run reads every meter and delivers the records.
func (j *MeterJob) Run(ctx context.Context) error {
	if len(j.points) == 0 {
		j.logger.Info("no meters configured; cycle skipped", "job", j.name)
		return nil
	}

	records, err := j.reader.Collect(ctx, j.points)
	if err != nil {
		return fmt.Errorf("%s: collecting: %w", j.name, err)
	}

	return j.finish(ctx, j.reader.SensorType(), records)
}
