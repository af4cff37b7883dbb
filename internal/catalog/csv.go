package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Seed file names read by ImportCSV.
const (
	MemoryMapFile  = "gems_3500_memory_map.csv"
	PowerFile      = "gems.csv"
	GasFile        = "gas.csv"
	HeatFile       = "heat.csv"
	AirQualityFile = "iaq.csv"
	ReceptacleFile = "ccm.csv"
)

// ImportCSV seeds the catalog from CSV files in dir. Missing files are
// skipped; a malformed row aborts the import with ErrInvalidRow naming the
// file and line.
func ImportCSV(ctx context.Context, w Writer, dir string) error {
	if rows, err := readCSV(filepath.Join(dir, MemoryMapFile), parseMemoryMapRow); err != nil {
		return err
	} else if len(rows) > 0 {
		if err := w.UpsertMemoryMap(ctx, rows); err != nil {
			return fmt.Errorf("importing memory map: %w", err)
		}
	}

	if points, err := readCSV(filepath.Join(dir, PowerFile), parsePowerPoint); err != nil {
		return err
	} else if len(points) > 0 {
		if err := w.UpsertPowerPoints(ctx, points); err != nil {
			return fmt.Errorf("importing power points: %w", err)
		}
	}

	if points, err := readCSV(filepath.Join(dir, GasFile), parseMeterPoint); err != nil {
		return err
	} else if len(points) > 0 {
		if err := w.UpsertGasPoints(ctx, points); err != nil {
			return fmt.Errorf("importing gas points: %w", err)
		}
	}

	if points, err := readCSV(filepath.Join(dir, HeatFile), parseMeterPoint); err != nil {
		return err
	} else if len(points) > 0 {
		if err := w.UpsertHeatPoints(ctx, points); err != nil {
			return fmt.Errorf("importing heat points: %w", err)
		}
	}

	if points, err := readCSV(filepath.Join(dir, AirQualityFile), parseAirQualityPoint); err != nil {
		return err
	} else if len(points) > 0 {
		if err := w.UpsertAirQualityPoints(ctx, points); err != nil {
			return fmt.Errorf("importing air quality points: %w", err)
		}
	}

	if points, err := readCSV(filepath.Join(dir, ReceptacleFile), parseReceptaclePoint); err != nil {
		return err
	} else if len(points) > 0 {
		if err := w.UpsertReceptaclePoints(ctx, points); err != nil {
			return fmt.Errorf("importing receptacle points: %w", err)
		}
	}

	return nil
}

// record gives header-keyed access to one CSV row.
type record map[string]string

func (r record) str(col string) string {
	return strings.TrimSpace(r[col])
}

func (r record) int(col string) (int, error) {
	v, err := strconv.Atoi(r.str(col))
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", col, err)
	}
	return v, nil
}

func (r record) optInt(col string) (*int, error) {
	if r.str(col) == "" {
		return nil, nil
	}
	v, err := r.int(col)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r record) bool(col string) (bool, error) {
	v, err := strconv.ParseBool(r.str(col))
	if err != nil {
		return false, fmt.Errorf("column %s: %w", col, err)
	}
	return v, nil
}

func (r record) ids() (uuid.UUID, uuid.UUID, error) {
	return parseIDs(r.str("building_id"), r.str("measurement_point_id"))
}

// readCSV parses every data row of path with parse. A missing file yields
// no rows and no error.
func readCSV[T any](path string, parse func(record) (T, error)) ([]T, error) {
	f, err := os.Open(path) //nolint:gosec // path is built from the configured seed directory
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s header: %w", path, err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header[i], "\uFEFF")))
	}

	var out []T
	for line := 2; ; line++ {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %w", ErrInvalidRow, path, line, err)
		}

		rec := make(record, len(header))
		for i, col := range header {
			if i < len(fields) {
				rec[col] = fields[i]
			}
		}

		v, err := parse(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %w", ErrInvalidRow, path, line, err)
		}
		out = append(out, v)
	}

	return out, nil
}

func parseMemoryMapRow(r record) (MemoryMapRow, error) {
	address, err := r.int("memory_address")
	if err != nil {
		return MemoryMapRow{}, err
	}
	if address < 0 || address > 0xFFFF {
		return MemoryMapRow{}, fmt.Errorf("memory_address %d out of range", address)
	}

	row := MemoryMapRow{
		Address:      uint16(address), //nolint:gosec // range checked above
		DataCategory: r.str("data_category"),
		Phase:        r.str("phase"),
		DataType:     r.str("data_type"),
	}

	if fc, err := r.optInt("fc"); err != nil {
		return MemoryMapRow{}, err
	} else if fc != nil {
		row.FunctionCode = *fc
	}
	if size, err := r.optInt("size_in_bytes"); err != nil {
		return MemoryMapRow{}, err
	} else if size != nil {
		row.SizeInBytes = *size
	}
	if div, err := r.optInt("divide_by"); err != nil {
		return MemoryMapRow{}, err
	} else if div != nil {
		if *div < -32768 || *div > 32767 {
			return MemoryMapRow{}, fmt.Errorf("divide_by %d out of range", *div)
		}
		d := int16(*div) //nolint:gosec // range checked above
		row.DivideBy = &d
	}

	return row, nil
}

func parsePowerPoint(r record) (PowerPoint, error) {
	var p PowerPoint
	var err error
	if p.BuildingID, p.MeasurementPointID, err = r.ids(); err != nil {
		return p, err
	}
	p.Host = r.str("host")
	if p.Port, err = r.int("port"); err != nil {
		return p, err
	}
	unitID, err := r.int("unit_id")
	if err != nil {
		return p, err
	}
	if unitID < 0 || unitID > 255 {
		return p, fmt.Errorf("unit_id %d out of range", unitID)
	}
	p.UnitID = uint8(unitID) //nolint:gosec // range checked above
	channel, err := r.int("channel")
	if err != nil {
		return p, err
	}
	if channel < 1 || channel > 0xFFFF {
		return p, fmt.Errorf("channel %d out of range", channel)
	}
	p.Channel = uint16(channel) //nolint:gosec // range checked above
	if p.ExportSum, err = r.bool("export_sum_status"); err != nil {
		return p, err
	}
	return p, p.Validate()
}

func parseMeterPoint(r record) (MeterPoint, error) {
	var p MeterPoint
	var err error
	if p.BuildingID, p.MeasurementPointID, err = r.ids(); err != nil {
		return p, err
	}
	p.Host = r.str("host")
	if p.Port, err = r.int("port"); err != nil {
		return p, err
	}
	unitID, err := r.int("unit_id")
	if err != nil {
		return p, err
	}
	if unitID < 0 || unitID > 255 {
		return p, fmt.Errorf("unit_id %d out of range", unitID)
	}
	p.UnitID = uint8(unitID) //nolint:gosec // range checked above
	return p, p.Validate()
}

func parseAirQualityPoint(r record) (AirQualityPoint, error) {
	var p AirQualityPoint
	var err error
	if p.BuildingID, p.MeasurementPointID, err = r.ids(); err != nil {
		return p, err
	}
	p.MAC = NormaliseMAC(r.str("mac"))
	p.Metric = strings.ToLower(r.str("iaq_type"))
	if p.MAC == "" || p.Metric == "" {
		return p, fmt.Errorf("%w: mac and iaq_type are required", ErrInvalidPoint)
	}
	return p, nil
}

func parseReceptaclePoint(r record) (ReceptaclePoint, error) {
	var p ReceptaclePoint
	var err error
	if p.BuildingID, p.MeasurementPointID, err = r.ids(); err != nil {
		return p, err
	}
	p.MAC = NormaliseMAC(r.str("mac"))
	if p.MAC == "" {
		return p, fmt.Errorf("%w: mac is required", ErrInvalidPoint)
	}
	return p, nil
}
