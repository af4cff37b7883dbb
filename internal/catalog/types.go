package catalog

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/nerrad567/meterlink/internal/registers"
)

// PowerPoint is one channel of a multi-channel power meter polled over
// Modbus/TCP.
type PowerPoint struct {
	BuildingID         uuid.UUID
	MeasurementPointID uuid.UUID
	Host               string
	Port               int
	UnitID             uint8
	Channel            uint16

	// ExportSum enables the export energy-sum register. When false the
	// field is never read and is reported as null.
	ExportSum bool
}

// Endpoint returns host:port for the point's Modbus/TCP connection.
func (p PowerPoint) Endpoint() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// Validate checks the point for obviously unusable values.
func (p PowerPoint) Validate() error {
	if err := validateEndpoint(p.Host, p.Port); err != nil {
		return err
	}
	if p.Channel == 0 {
		return fmt.Errorf("%w: channel must be >= 1", ErrInvalidPoint)
	}
	return nil
}

// MeterPoint is a single-device meter (gas or heat) with its own session.
type MeterPoint struct {
	BuildingID         uuid.UUID
	MeasurementPointID uuid.UUID
	Host               string
	Port               int
	UnitID             uint8
}

// Endpoint returns host:port for the meter's Modbus/TCP connection.
func (p MeterPoint) Endpoint() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// Validate checks the point for obviously unusable values.
func (p MeterPoint) Validate() error {
	return validateEndpoint(p.Host, p.Port)
}

// AirQualityPoint binds one metric of an air-quality sensor (identified by
// MAC) to a measurement point. A sensor usually backs several points, one
// per metric.
type AirQualityPoint struct {
	BuildingID         uuid.UUID
	MeasurementPointID uuid.UUID
	MAC                string
	Metric             string
}

// ReceptaclePoint binds a smart receptacle (identified by MAC) to a
// measurement point.
type ReceptaclePoint struct {
	BuildingID         uuid.UUID
	MeasurementPointID uuid.UUID
	MAC                string
}

// MemoryMapRow is one row of a device vendor's register table.
type MemoryMapRow struct {
	Address      uint16
	DataCategory string
	Phase        string
	FunctionCode int
	SizeInBytes  int
	DataType     string

	// DivideBy is nil when the vendor table leaves the column empty.
	DivideBy *int16
}

// Descriptor converts the row into a register descriptor. A missing divisor
// defaults to 1; an unknown data type maps to registers.None.
func (r MemoryMapRow) Descriptor() registers.Descriptor {
	divisor := int16(1)
	if r.DivideBy != nil {
		divisor = *r.DivideBy
	}
	return registers.Descriptor{
		Address:  r.Address,
		Type:     registers.ParseValueType(r.DataType),
		Function: registers.FunctionCode(r.FunctionCode), //nolint:gosec // fc is 3 or 4
		Divisor:  divisor,
	}
}

// NormaliseMAC returns the canonical colon-separated uppercase form.
func NormaliseMAC(mac string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(mac), "-", ":"))
}

func validateEndpoint(host string, port int) error {
	if strings.TrimSpace(host) == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidPoint)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidPoint, port)
	}
	return nil
}
