package collect

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/meterlink/internal/catalog"
	"github.com/nerrad567/meterlink/internal/reading"
	"github.com/nerrad567/meterlink/internal/registers"
)

// meterField reads one named value from a single-device meter.
type meterField struct {
	name     string
	function registers.FunctionCode
	address  uint16
	decode   func(words []uint16) (float64, error)
}

// MeterCollector polls single-device meters that share one fixed register
// layout. Each meter gets its own session; meters run concurrently.
type MeterCollector struct {
	sensorType string
	fields     []meterField
	dialer     Dialer
	timeout    time.Duration
	logger     Logger
	now        func() time.Time
}

func newMeterCollector(sensorType string, fields []meterField, dialer Dialer, timeout time.Duration) *MeterCollector {
	if timeout <= 0 {
		timeout = DefaultBatchTimeout
	}
	return &MeterCollector{
		sensorType: sensorType,
		fields:     fields,
		dialer:     dialer,
		timeout:    timeout,
		logger:     noopLogger{},
		now:        time.Now,
	}
}

// SetLogger sets the logger for the collector.
func (c *MeterCollector) SetLogger(logger Logger) {
	c.logger = logger
}

// SetClock replaces the wall clock used for record timestamps.
func (c *MeterCollector) SetClock(now func() time.Time) {
	c.now = now
}

// SensorType returns the payload tag for this collector's records.
func (c *MeterCollector) SensorType() string {
	return c.sensorType
}

// Collect reads every meter and returns one record per reachable meter, in
// input order. A meter that cannot be reached within the timeout is logged
// and skipped; a failed field read is reported as null.
func (c *MeterCollector) Collect(ctx context.Context, points []catalog.MeterPoint) ([]reading.Record, error) {
	recordedAt := reading.CycleTime(c.now())
	results := make([]*reading.Record, len(points))

	var g errgroup.Group
	for i := range points {
		p := points[i]
		g.Go(func() error {
			rec, err := c.collectOne(ctx, p, recordedAt)
			if err != nil {
				c.logger.Warn("meter skipped",
					"sensor_type", c.sensorType,
					"endpoint", p.Endpoint(),
					"unit_id", p.UnitID,
					"measurement_point_id", p.MeasurementPointID,
					"error", err,
				)
				return nil
			}
			results[i] = rec
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // meter goroutines never return errors

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]reading.Record, 0, len(points))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (c *MeterCollector) collectOne(ctx context.Context, p catalog.MeterPoint, recordedAt time.Time) (*reading.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	sess, err := c.dialer.Dial(ctx, p.Endpoint(), p.UnitID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s unit %d: %w", ErrConnectFailed, p.Endpoint(), p.UnitID, err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			c.logger.Debug("closing session", "endpoint", p.Endpoint(), "error", err)
		}
	}()

	fields := make([]reading.Field, len(c.fields))
	for i, f := range c.fields {
		fields[i] = reading.Field{Name: f.name}

		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrBatchTimeout, p.Endpoint(), err)
		}

		words, err := c.read(sess, f)
		if err == nil {
			var v float64
			if v, err = f.decode(words); err == nil {
				fields[i].Value = &v
				continue
			}
		}
		c.logger.Warn("meter register read failed",
			"sensor_type", c.sensorType,
			"endpoint", p.Endpoint(),
			"unit_id", p.UnitID,
			"address", f.address,
			"error", err,
		)
	}

	return &reading.Record{
		BuildingID:         p.BuildingID,
		MeasurementPointID: p.MeasurementPointID,
		RecordedAt:         recordedAt,
		Fields:             fields,
	}, nil
}

func (c *MeterCollector) read(sess Session, f meterField) ([]uint16, error) {
	var (
		words []uint16
		err   error
	)
	if f.function == registers.ReadHoldingRegisters {
		words, err = sess.ReadHoldingRegisters(f.address, 2)
	} else {
		words, err = sess.ReadInputRegisters(f.address, 2)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: address %d: %w", ErrReadFailed, f.address, err)
	}
	if len(words) != 2 {
		return nil, fmt.Errorf("%w: address %d returned %d words, want 2", ErrReadFailed, f.address, len(words))
	}
	return words, nil
}
