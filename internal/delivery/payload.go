package delivery

import (
	"github.com/google/uuid"

	"github.com/nerrad567/meterlink/internal/reading"
)

// Payload is the unit of delivery: one sensor type, one building.
type Payload struct {
	SensorType string           `json:"sensor_type"`
	BuildingID uuid.UUID        `json:"building_id"`
	Data       []reading.Record `json:"data"`
}

// SplitByBuilding groups records into one payload per building.
// Buildings appear in the order their first record does and records keep
// their relative order.
func SplitByBuilding(sensorType string, records []reading.Record) []Payload {
	var payloads []Payload
	index := make(map[uuid.UUID]int)

	for _, r := range records {
		i, ok := index[r.BuildingID]
		if !ok {
			i = len(payloads)
			index[r.BuildingID] = i
			payloads = append(payloads, Payload{SensorType: sensorType, BuildingID: r.BuildingID})
		}
		payloads[i].Data = append(payloads[i].Data, r)
	}

	return payloads
}
