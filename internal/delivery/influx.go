package delivery

import (
	"context"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/meterlink/internal/reading"
)

// PointWriter is the subset of influxdb.Client the sink needs.
type PointWriter interface {
	WritePoints(ctx context.Context, points []*write.Point) error
}

// InfluxSink writes one point per record.
//
// measurement = sensor type, tags = building_id and measurement_point_id,
// fields = the record's non-null values, time = recorded_at.
type InfluxSink struct {
	w PointWriter
}

// NewInfluxSink creates a sink over w.
func NewInfluxSink(w PointWriter) *InfluxSink {
	return &InfluxSink{w: w}
}

// Name implements Sink.
func (s *InfluxSink) Name() string { return "influxdb" }

// Deliver implements Sink. Records whose values are all null are skipped
// because a point needs at least one field.
func (s *InfluxSink) Deliver(ctx context.Context, p Payload) error {
	points := make([]*write.Point, 0, len(p.Data))
	for _, r := range p.Data {
		if pt := recordPoint(p.SensorType, r); pt != nil {
			points = append(points, pt)
		}
	}
	if len(points) == 0 {
		return nil
	}
	return s.w.WritePoints(ctx, points)
}

func recordPoint(sensorType string, r reading.Record) *write.Point {
	fields := make(map[string]any, len(r.Fields))
	for _, f := range r.Fields {
		if f.Value != nil {
			fields[f.Name] = *f.Value
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return write.NewPoint(sensorType,
		map[string]string{
			"building_id":          r.BuildingID.String(),
			"measurement_point_id": r.MeasurementPointID.String(),
		},
		fields,
		r.RecordedAt,
	)
}
