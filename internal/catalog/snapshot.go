package catalog

import (
	"context"
	"fmt"

	"github.com/nerrad567/meterlink/internal/registers"
)

// Snapshot is the read-only catalog shared by every collection job.
//
// Thread Safety:
//   - Built once by Load and never mutated afterwards. Callers must not
//     modify the returned slices or maps.
type Snapshot struct {
	MemoryMap *registers.MemoryMap

	PowerPoints []PowerPoint
	GasPoints   []MeterPoint
	HeatPoints  []MeterPoint

	airQualityByMAC map[string][]AirQualityPoint
	receptacleByMAC map[string][]ReceptaclePoint
}

// Load reads every catalog list from r and builds a Snapshot.
//
// Parameters:
//   - ctx: Context for cancellation
//   - r: Catalog source
//
// Returns:
//   - *Snapshot: Immutable catalog
//   - error: If any list fails to load or the memory map is invalid
func Load(ctx context.Context, r Reader) (*Snapshot, error) {
	rows, err := r.ListMemoryMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading memory map: %w", err)
	}
	descriptors := make([]registers.Descriptor, 0, len(rows))
	for _, row := range rows {
		descriptors = append(descriptors, row.Descriptor())
	}
	mm, err := registers.NewMemoryMap(descriptors)
	if err != nil {
		return nil, fmt.Errorf("building memory map: %w", err)
	}

	power, err := r.ListPowerPoints(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading power points: %w", err)
	}
	gas, err := r.ListGasPoints(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading gas points: %w", err)
	}
	heat, err := r.ListHeatPoints(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading heat points: %w", err)
	}

	aq, err := r.ListAirQualityPoints(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading air quality points: %w", err)
	}
	rc, err := r.ListReceptaclePoints(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading receptacle points: %w", err)
	}

	return NewSnapshot(mm, power, gas, heat, aq, rc), nil
}

// NewSnapshot assembles a Snapshot from already-loaded lists.
func NewSnapshot(
	mm *registers.MemoryMap,
	power []PowerPoint,
	gas, heat []MeterPoint,
	airQuality []AirQualityPoint,
	receptacles []ReceptaclePoint,
) *Snapshot {
	s := &Snapshot{
		MemoryMap:       mm,
		PowerPoints:     power,
		GasPoints:       gas,
		HeatPoints:      heat,
		airQualityByMAC: make(map[string][]AirQualityPoint),
		receptacleByMAC: make(map[string][]ReceptaclePoint),
	}
	for _, p := range airQuality {
		mac := NormaliseMAC(p.MAC)
		s.airQualityByMAC[mac] = append(s.airQualityByMAC[mac], p)
	}
	for _, p := range receptacles {
		mac := NormaliseMAC(p.MAC)
		s.receptacleByMAC[mac] = append(s.receptacleByMAC[mac], p)
	}
	return s
}

// AirQualityPoints returns the points backed by the sensor with mac.
func (s *Snapshot) AirQualityPoints(mac string) []AirQualityPoint {
	return s.airQualityByMAC[NormaliseMAC(mac)]
}

// ReceptaclePoints returns the points backed by the receptacle with mac.
func (s *Snapshot) ReceptaclePoints(mac string) []ReceptaclePoint {
	return s.receptacleByMAC[NormaliseMAC(mac)]
}
