package delivery

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/meterlink/internal/reading"
)

// Sink delivers one payload to one destination.
type Sink interface {
	// Name identifies the sink in logs.
	Name() string

	// Deliver sends p. Implementations must respect ctx cancellation.
	Deliver(ctx context.Context, p Payload) error
}

// Dispatcher fans each cycle's payloads out to every sink.
//
// Thread Safety:
//   - Deliver is safe for concurrent use once SetLogger has been called.
type Dispatcher struct {
	sinks  []Sink
	logger Logger
}

// NewDispatcher creates a dispatcher over the given sinks. With no sinks
// every delivery is a logged no-op.
func NewDispatcher(sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		sinks:  sinks,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for delivery outcomes.
func (d *Dispatcher) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	d.logger = logger
}

// Sinks returns the configured sink names in delivery order.
func (d *Dispatcher) Sinks() []string {
	names := make([]string, len(d.sinks))
	for i, s := range d.sinks {
		names[i] = s.Name()
	}
	return names
}

// Deliver splits records by building and sends every payload to every sink.
//
// A failing sink does not stop the others. Failures are logged and
// returned joined; they are never retried.
//
// Parameters:
//   - ctx: Bounds all sink calls
//   - sensorType: One of the reading.Sensor* tags
//   - records: The cycle's records; empty means nothing is sent
//
// Returns:
//   - error: nil when every sink accepted every payload
func (d *Dispatcher) Deliver(ctx context.Context, sensorType string, records []reading.Record) error {
	if len(records) == 0 {
		d.logger.Debug("nothing to deliver", "sensor_type", sensorType)
		return nil
	}
	if len(d.sinks) == 0 {
		d.logger.Warn("no delivery sinks configured; dropping records",
			"sensor_type", sensorType,
			"records", len(records),
		)
		return nil
	}

	var errs []error
	for _, p := range SplitByBuilding(sensorType, records) {
		for _, s := range d.sinks {
			if err := s.Deliver(ctx, p); err != nil {
				d.logger.Error("delivery failed",
					"sink", s.Name(),
					"sensor_type", p.SensorType,
					"building_id", p.BuildingID,
					"records", len(p.Data),
					"error", err,
				)
				errs = append(errs, fmt.Errorf("%s: building %s: %w", s.Name(), p.BuildingID, err))
				continue
			}
			d.logger.Debug("payload delivered",
				"sink", s.Name(),
				"sensor_type", p.SensorType,
				"building_id", p.BuildingID,
				"records", len(p.Data),
			)
		}
	}

	return errors.Join(errs...)
}
