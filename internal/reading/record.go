package reading

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Sensor type tags carried in delivery payloads.
const (
	SensorPower      = "gems"
	SensorGas        = "gas"
	SensorHeat       = "heat"
	SensorAirQuality = "iaq"
	SensorReceptacle = "ccm"
)

// Field is one named value of a record.
type Field struct {
	Name  string
	Value *float64
}

// Record is one point's readings for one collection cycle.
type Record struct {
	BuildingID         uuid.UUID
	MeasurementPointID uuid.UUID
	RecordedAt         time.Time
	Fields             []Field
}

// Value returns the named field's value, or nil when absent or null.
func (r Record) Value(name string) *float64 {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return nil
}

// MarshalJSON writes the record as a flat object with fields in order:
//
//	{"building_id":"…","measurement_point_id":"…","wire":3,"total_a":null,…,"recorded_at":"…"}
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	write := func(key string, v any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		val, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
		return nil
	}

	if err := write("building_id", r.BuildingID); err != nil {
		return nil, err
	}
	if err := write("measurement_point_id", r.MeasurementPointID); err != nil {
		return nil, err
	}
	for _, f := range r.Fields {
		if err := write(f.Name, f.Value); err != nil {
			return nil, err
		}
	}
	if err := write("recorded_at", r.RecordedAt.UTC()); err != nil {
		return nil, err
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// CycleTime returns t in UTC truncated to the minute. Every record produced
// in one cycle carries the same value.
func CycleTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Minute)
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
