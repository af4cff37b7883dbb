package collect

import (
	"time"

	"github.com/nerrad567/meterlink/internal/reading"
	"github.com/nerrad567/meterlink/internal/registers"
)

// Gas meter input registers. Every value spans two words.
const (
	gasCumulativeFlowAddr = 0x00
	gasInstantFlowAddr    = 0x02
	gasPressureAddr       = 0x08
	gasTemperatureAddr    = 0x0A
)

// NewGasCollector returns a collector for gas flow meters.
//
// Fields: cumulative_flow (m³), instant_flow (m³/h), pressure (kPa) and
// temp (°C).
func NewGasCollector(dialer Dialer, timeout time.Duration) *MeterCollector {
	return newMeterCollector(reading.SensorGas, []meterField{
		{name: "cumulative_flow", function: registers.ReadInputRegisters, address: gasCumulativeFlowAddr, decode: gasCounter},
		{name: "instant_flow", function: registers.ReadInputRegisters, address: gasInstantFlowAddr, decode: gasFixedPoint},
		{name: "pressure", function: registers.ReadInputRegisters, address: gasPressureAddr, decode: gasFixedPoint},
		{name: "temp", function: registers.ReadInputRegisters, address: gasTemperatureAddr, decode: gasTemperature},
	}, dialer, timeout)
}

// gasCounter combines a ten-thousands word with a units word.
func gasCounter(w []uint16) (float64, error) {
	return float64(w[0])*10000 + float64(w[1]), nil
}

// gasFixedPoint combines a hundreds word with a hundredths word.
func gasFixedPoint(w []uint16) (float64, error) {
	return float64(w[0])*100 + float64(w[1])/100, nil
}

// gasTemperature is a magnitude in hundredths with a separate sign word:
// zero is positive, anything else negative.
func gasTemperature(w []uint16) (float64, error) {
	v := float64(w[1]) / 100
	if w[0] != 0 {
		v = -v
	}
	return v, nil
}
