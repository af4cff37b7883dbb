package udpframe

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/meterlink/internal/catalog"
	"github.com/nerrad567/meterlink/internal/reading"
)

// PointLookup finds the measurement points bound to a device MAC.
// *catalog.Snapshot implements it.
type PointLookup interface {
	AirQualityPoints(mac string) []catalog.AirQualityPoint
	ReceptaclePoints(mac string) []catalog.ReceptaclePoint
}

// Result is the outcome of dispatching one frame.
type Result struct {
	SensorType string
	Records    []reading.Record
}

// Dispatch decodes the frame's register block according to its device type
// and builds one record per bound measurement point.
//
// An unknown device type returns ErrUnknownDeviceType without looking at the
// registers. A device with no bound points yields an empty Result.
func Dispatch(f *Frame, lookup PointLookup, recordedAt time.Time) (Result, error) {
	switch f.Metadata.DeviceType {
	case DeviceAirQuality:
		return dispatchAirQuality(f, lookup, recordedAt)
	case DeviceReceptacle:
		return dispatchReceptacle(f, lookup, recordedAt)
	default:
		return Result{}, fmt.Errorf("%w: %d from %s", ErrUnknownDeviceType, uint8(f.Metadata.DeviceType), f.Metadata.MAC)
	}
}

// dispatchAirQuality emits one single-value record per bound metric. When
// the same measurement point is bound twice the last binding wins.
func dispatchAirQuality(f *Frame, lookup PointLookup, recordedAt time.Time) (Result, error) {
	aq, err := DecodeAirQuality(f.Message.Registers)
	if err != nil {
		return Result{}, err
	}
	metrics := aq.Metrics()

	res := Result{SensorType: reading.SensorAirQuality}
	seen := make(map[uuid.UUID]int)

	for _, p := range lookup.AirQualityPoints(f.Metadata.MAC) {
		v, ok := metrics[NormaliseMetric(p.Metric)]
		if !ok {
			continue
		}
		rec := reading.Record{
			BuildingID:         p.BuildingID,
			MeasurementPointID: p.MeasurementPointID,
			RecordedAt:         recordedAt,
			Fields:             []reading.Field{{Name: "value", Value: reading.Float(v)}},
		}
		if i, dup := seen[p.MeasurementPointID]; dup {
			res.Records[i] = rec
			continue
		}
		seen[p.MeasurementPointID] = len(res.Records)
		res.Records = append(res.Records, rec)
	}

	return res, nil
}

func dispatchReceptacle(f *Frame, lookup PointLookup, recordedAt time.Time) (Result, error) {
	rc, err := DecodeReceptacle(f.Message.Registers)
	if err != nil {
		return Result{}, err
	}

	res := Result{SensorType: reading.SensorReceptacle}
	seen := make(map[uuid.UUID]bool)

	for _, p := range lookup.ReceptaclePoints(f.Metadata.MAC) {
		if seen[p.MeasurementPointID] {
			continue
		}
		seen[p.MeasurementPointID] = true
		res.Records = append(res.Records, reading.Record{
			BuildingID:         p.BuildingID,
			MeasurementPointID: p.MeasurementPointID,
			RecordedAt:         recordedAt,
			Fields:             rc.Fields(),
		})
	}

	return res, nil
}
