package collect

import (
	"fmt"
	"math"
	"time"

	"github.com/nerrad567/meterlink/internal/reading"
	"github.com/nerrad567/meterlink/internal/registers"
)

// Heat meter holding registers. Each is an IEEE-754 float transmitted low
// word first.
const (
	heatInstantFlowAddr    = 0x00
	heatInstantHeatAddr    = 0x02
	heatSupplyTempAddr     = 0x20
	heatReturnTempAddr     = 0x22
	heatCumulativeFlowAddr = 0x70
	heatCumulativeHeatAddr = 0x76
)

// NewHeatCollector returns a collector for heat meters.
func NewHeatCollector(dialer Dialer, timeout time.Duration) *MeterCollector {
	return newMeterCollector(reading.SensorHeat, []meterField{
		{name: "instant_flow", function: registers.ReadHoldingRegisters, address: heatInstantFlowAddr, decode: heatFloat},
		{name: "instant_heat", function: registers.ReadHoldingRegisters, address: heatInstantHeatAddr, decode: heatFloat},
		{name: "supply_temperature", function: registers.ReadHoldingRegisters, address: heatSupplyTempAddr, decode: heatFloat},
		{name: "return_temperature", function: registers.ReadHoldingRegisters, address: heatReturnTempAddr, decode: heatFloat},
		{name: "cumulative_flow", function: registers.ReadHoldingRegisters, address: heatCumulativeFlowAddr, decode: heatFloat},
		{name: "cumulative_heat", function: registers.ReadHoldingRegisters, address: heatCumulativeHeatAddr, decode: heatFloat},
	}, dialer, timeout)
}

func heatFloat(w []uint16) (float64, error) {
	f, err := registers.Float32LowWordFirst(w)
	if err != nil {
		return 0, err
	}
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %v", ErrNonFinite, v)
	}
	return v, nil
}
