package udpframe

import (
	"fmt"
	"strings"

	"github.com/nerrad567/meterlink/internal/reading"
	"github.com/nerrad567/meterlink/internal/registers"
)

// RegisterBlockSize is the register count every supported device sends.
const RegisterBlockSize = 64

// Air-quality register offsets.
const (
	aqTemperatureReg = 0
	aqHumidityReg    = 1
	aqCO2Reg         = 2
	aqPM25Reg        = 3
	aqPM10Reg        = 4
	aqTVOCReg        = 5
	aqLuxReg         = 6
)

// Air-quality metric names, matching the metric column of the catalog.
const (
	MetricTemperature = "temperature"
	MetricHumidity    = "humidity"
	MetricCO2         = "co2"
	MetricPM25        = "pm25"
	MetricPM10        = "pm10"
	MetricTVOC        = "tvoc"
	MetricLux         = "lux"
)

// AirQuality is the decoded payload of an air-quality sensor.
type AirQuality struct {
	Temperature float64 // °C
	Humidity    float64 // %RH
	CO2         float64 // ppm
	PM25        float64 // µg/m³
	PM10        float64 // µg/m³
	TVOC        float64 // ppb
	Lux         float64
}

// DecodeAirQuality decodes a 64-register air-quality block.
func DecodeAirQuality(regs []uint16) (AirQuality, error) {
	if len(regs) != RegisterBlockSize {
		return AirQuality{}, fmt.Errorf("%w: air quality needs %d, got %d", ErrRegisterCount, RegisterBlockSize, len(regs))
	}
	return AirQuality{
		Temperature: float64(int16(regs[aqTemperatureReg])) / 10, //nolint:gosec // signed register
		Humidity:    float64(regs[aqHumidityReg]) / 10,
		CO2:         float64(regs[aqCO2Reg]),
		PM25:        float64(regs[aqPM25Reg]),
		PM10:        float64(regs[aqPM10Reg]),
		TVOC:        float64(regs[aqTVOCReg]),
		Lux:         float64(regs[aqLuxReg]),
	}, nil
}

// Metrics returns the payload keyed by metric name.
func (a AirQuality) Metrics() map[string]float64 {
	return map[string]float64{
		MetricTemperature: a.Temperature,
		MetricHumidity:    a.Humidity,
		MetricCO2:         a.CO2,
		MetricPM25:        a.PM25,
		MetricPM10:        a.PM10,
		MetricTVOC:        a.TVOC,
		MetricLux:         a.Lux,
	}
}

// NormaliseMetric maps catalog spellings such as "PM2.5" to metric names.
func NormaliseMetric(s string) string {
	m := strings.ToLower(strings.TrimSpace(s))
	switch m {
	case "pm2.5", "pm2_5", "pm_25":
		return MetricPM25
	case "temp":
		return MetricTemperature
	case "humi":
		return MetricHumidity
	}
	return m
}

// Smart receptacle register offsets.
const (
	rcOnOffReg       = 0
	rcVoltageReg     = 20
	rcCurrentReg     = 21
	rcWattReg        = 22
	rcPowerFactorReg = 23
	rcTodayUsageReg  = 24
	rcMonthlyLowReg  = 26
	rcMonthlyHighReg = 27
)

// Receptacle is the decoded payload of a smart receptacle.
type Receptacle struct {
	OnOff        uint16
	Voltage      float64 // V
	Current      float64 // A
	Watt         float64 // W
	PowerFactor  float64
	TodayUsage   float64 // kWh
	MonthlyUsage uint32  // Wh, transmitted low word first
}

// DecodeReceptacle decodes a 64-register smart receptacle block.
func DecodeReceptacle(regs []uint16) (Receptacle, error) {
	if len(regs) != RegisterBlockSize {
		return Receptacle{}, fmt.Errorf("%w: receptacle needs %d, got %d", ErrRegisterCount, RegisterBlockSize, len(regs))
	}
	return Receptacle{
		OnOff:        regs[rcOnOffReg],
		Voltage:      float64(regs[rcVoltageReg]) / 100,
		Current:      float64(regs[rcCurrentReg]) / 1000,
		Watt:         float64(regs[rcWattReg]) / 10,
		PowerFactor:  float64(regs[rcPowerFactorReg]) / 10,
		TodayUsage:   float64(regs[rcTodayUsageReg]) / 10,
		MonthlyUsage: registers.Uint32LowWordFirst(regs[rcMonthlyLowReg], regs[rcMonthlyHighReg]),
	}, nil
}

// Fields returns the payload as record fields.
func (r Receptacle) Fields() []reading.Field {
	return []reading.Field{
		{Name: "onoff", Value: reading.Float(float64(r.OnOff))},
		{Name: "voltage", Value: reading.Float(r.Voltage)},
		{Name: "current", Value: reading.Float(r.Current)},
		{Name: "watt", Value: reading.Float(r.Watt)},
		{Name: "power_factor", Value: reading.Float(r.PowerFactor)},
		{Name: "today_usage", Value: reading.Float(r.TodayUsage)},
		{Name: "this_month_usage", Value: reading.Float(float64(r.MonthlyUsage))},
	}
}
