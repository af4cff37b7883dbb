package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Reader loads catalog entities in their configured order.
type Reader interface {
	ListMemoryMap(ctx context.Context) ([]MemoryMapRow, error)
	ListPowerPoints(ctx context.Context) ([]PowerPoint, error)
	ListGasPoints(ctx context.Context) ([]MeterPoint, error)
	ListHeatPoints(ctx context.Context) ([]MeterPoint, error)
	ListAirQualityPoints(ctx context.Context) ([]AirQualityPoint, error)
	ListReceptaclePoints(ctx context.Context) ([]ReceptaclePoint, error)
}

// Writer upserts catalog entities. Used by seeding only.
type Writer interface {
	UpsertMemoryMap(ctx context.Context, rows []MemoryMapRow) error
	UpsertPowerPoints(ctx context.Context, points []PowerPoint) error
	UpsertGasPoints(ctx context.Context, points []MeterPoint) error
	UpsertHeatPoints(ctx context.Context, points []MeterPoint) error
	UpsertAirQualityPoints(ctx context.Context, points []AirQualityPoint) error
	UpsertReceptaclePoints(ctx context.Context, points []ReceptaclePoint) error
}

// SQLiteRepository implements Reader and Writer using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open, migrated SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// ListMemoryMap returns all memory map rows ordered by address.
func (r *SQLiteRepository) ListMemoryMap(ctx context.Context) ([]MemoryMapRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT memory_address, data_category, phase, fc, size_in_bytes, data_type, divide_by
		FROM memory_map
		ORDER BY memory_address`)
	if err != nil {
		return nil, fmt.Errorf("querying memory map: %w", err)
	}
	defer rows.Close()

	var result []MemoryMapRow
	for rows.Next() {
		var (
			row      MemoryMapRow
			address  int64
			divideBy sql.NullInt16
		)
		if err := rows.Scan(&address, &row.DataCategory, &row.Phase, &row.FunctionCode,
			&row.SizeInBytes, &row.DataType, &divideBy); err != nil {
			return nil, fmt.Errorf("scanning memory map row: %w", err)
		}
		row.Address = uint16(address) //nolint:gosec // CHECK constraint keeps it in range
		if divideBy.Valid {
			d := divideBy.Int16
			row.DivideBy = &d
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating memory map: %w", err)
	}
	return result, nil
}

// ListPowerPoints returns power meter channels in insertion order.
func (r *SQLiteRepository) ListPowerPoints(ctx context.Context) ([]PowerPoint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT building_id, measurement_point_id, host, port, unit_id, channel, export_sum_status
		FROM power_points
		ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying power points: %w", err)
	}
	defer rows.Close()

	var result []PowerPoint
	for rows.Next() {
		var (
			p                PowerPoint
			buildingID, mpID string
			unitID, channel  int64
		)
		if err := rows.Scan(&buildingID, &mpID, &p.Host, &p.Port, &unitID, &channel, &p.ExportSum); err != nil {
			return nil, fmt.Errorf("scanning power point: %w", err)
		}
		if p.BuildingID, p.MeasurementPointID, err = parseIDs(buildingID, mpID); err != nil {
			return nil, err
		}
		p.UnitID = uint8(unitID)    //nolint:gosec // CHECK constraint keeps it in range
		p.Channel = uint16(channel) //nolint:gosec // CHECK constraint keeps it in range
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating power points: %w", err)
	}
	return result, nil
}

// ListGasPoints returns gas meters in insertion order.
func (r *SQLiteRepository) ListGasPoints(ctx context.Context) ([]MeterPoint, error) {
	return r.listMeterPoints(ctx, "gas_points")
}

// ListHeatPoints returns heat meters in insertion order.
func (r *SQLiteRepository) ListHeatPoints(ctx context.Context) ([]MeterPoint, error) {
	return r.listMeterPoints(ctx, "heat_points")
}

func (r *SQLiteRepository) listMeterPoints(ctx context.Context, table string) ([]MeterPoint, error) {
	// table is one of two constants above, never user input.
	rows, err := r.db.QueryContext(ctx, `
		SELECT building_id, measurement_point_id, host, port, unit_id
		FROM `+table+`
		ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	var result []MeterPoint
	for rows.Next() {
		var (
			p                MeterPoint
			buildingID, mpID string
			unitID           int64
		)
		if err := rows.Scan(&buildingID, &mpID, &p.Host, &p.Port, &unitID); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", table, err)
		}
		if p.BuildingID, p.MeasurementPointID, err = parseIDs(buildingID, mpID); err != nil {
			return nil, err
		}
		p.UnitID = uint8(unitID) //nolint:gosec // CHECK constraint keeps it in range
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", table, err)
	}
	return result, nil
}

// ListAirQualityPoints returns air-quality metric bindings in insertion order.
func (r *SQLiteRepository) ListAirQualityPoints(ctx context.Context) ([]AirQualityPoint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT building_id, measurement_point_id, mac, metric
		FROM air_quality_points
		ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying air quality points: %w", err)
	}
	defer rows.Close()

	var result []AirQualityPoint
	for rows.Next() {
		var (
			p                AirQualityPoint
			buildingID, mpID string
		)
		if err := rows.Scan(&buildingID, &mpID, &p.MAC, &p.Metric); err != nil {
			return nil, fmt.Errorf("scanning air quality point: %w", err)
		}
		if p.BuildingID, p.MeasurementPointID, err = parseIDs(buildingID, mpID); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating air quality points: %w", err)
	}
	return result, nil
}

// ListReceptaclePoints returns smart receptacle bindings in insertion order.
func (r *SQLiteRepository) ListReceptaclePoints(ctx context.Context) ([]ReceptaclePoint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT building_id, measurement_point_id, mac
		FROM receptacle_points
		ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying receptacle points: %w", err)
	}
	defer rows.Close()

	var result []ReceptaclePoint
	for rows.Next() {
		var (
			p                ReceptaclePoint
			buildingID, mpID string
		)
		if err := rows.Scan(&buildingID, &mpID, &p.MAC); err != nil {
			return nil, fmt.Errorf("scanning receptacle point: %w", err)
		}
		if p.BuildingID, p.MeasurementPointID, err = parseIDs(buildingID, mpID); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating receptacle points: %w", err)
	}
	return result, nil
}

// UpsertMemoryMap inserts or replaces memory map rows in one transaction.
func (r *SQLiteRepository) UpsertMemoryMap(ctx context.Context, rows []MemoryMapRow) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, row := range rows {
			var divideBy any
			if row.DivideBy != nil {
				divideBy = *row.DivideBy
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO memory_map (memory_address, data_category, phase, fc, size_in_bytes, data_type, divide_by)
				VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(memory_address) DO UPDATE SET
					data_category = excluded.data_category,
					phase = excluded.phase,
					fc = excluded.fc,
					size_in_bytes = excluded.size_in_bytes,
					data_type = excluded.data_type,
					divide_by = excluded.divide_by`,
				row.Address, row.DataCategory, row.Phase, row.FunctionCode, row.SizeInBytes, row.DataType, divideBy,
			); err != nil {
				return fmt.Errorf("upserting memory map address %d: %w", row.Address, err)
			}
		}
		return nil
	})
}

// UpsertPowerPoints inserts or updates power meter channels.
func (r *SQLiteRepository) UpsertPowerPoints(ctx context.Context, points []PowerPoint) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, p := range points {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO power_points (measurement_point_id, building_id, host, port, unit_id, channel, export_sum_status)
				VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(measurement_point_id) DO UPDATE SET
					building_id = excluded.building_id,
					host = excluded.host,
					port = excluded.port,
					unit_id = excluded.unit_id,
					channel = excluded.channel,
					export_sum_status = excluded.export_sum_status`,
				p.MeasurementPointID.String(), p.BuildingID.String(), p.Host, p.Port, p.UnitID, p.Channel, p.ExportSum,
			); err != nil {
				return fmt.Errorf("upserting power point %s: %w", p.MeasurementPointID, err)
			}
		}
		return nil
	})
}

// UpsertGasPoints inserts or updates gas meters.
func (r *SQLiteRepository) UpsertGasPoints(ctx context.Context, points []MeterPoint) error {
	return r.upsertMeterPoints(ctx, "gas_points", points)
}

// UpsertHeatPoints inserts or updates heat meters.
func (r *SQLiteRepository) UpsertHeatPoints(ctx context.Context, points []MeterPoint) error {
	return r.upsertMeterPoints(ctx, "heat_points", points)
}

func (r *SQLiteRepository) upsertMeterPoints(ctx context.Context, table string, points []MeterPoint) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, p := range points {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO `+table+` (measurement_point_id, building_id, host, port, unit_id)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(measurement_point_id) DO UPDATE SET
					building_id = excluded.building_id,
					host = excluded.host,
					port = excluded.port,
					unit_id = excluded.unit_id`,
				p.MeasurementPointID.String(), p.BuildingID.String(), p.Host, p.Port, p.UnitID,
			); err != nil {
				return fmt.Errorf("upserting %s %s: %w", table, p.MeasurementPointID, err)
			}
		}
		return nil
	})
}

// UpsertAirQualityPoints inserts or updates air-quality metric bindings.
func (r *SQLiteRepository) UpsertAirQualityPoints(ctx context.Context, points []AirQualityPoint) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, p := range points {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO air_quality_points (measurement_point_id, building_id, mac, metric)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(measurement_point_id) DO UPDATE SET
					building_id = excluded.building_id,
					mac = excluded.mac,
					metric = excluded.metric`,
				p.MeasurementPointID.String(), p.BuildingID.String(), NormaliseMAC(p.MAC), p.Metric,
			); err != nil {
				return fmt.Errorf("upserting air quality point %s: %w", p.MeasurementPointID, err)
			}
		}
		return nil
	})
}

// UpsertReceptaclePoints inserts or updates smart receptacle bindings.
func (r *SQLiteRepository) UpsertReceptaclePoints(ctx context.Context, points []ReceptaclePoint) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, p := range points {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO receptacle_points (measurement_point_id, building_id, mac)
				VALUES (?, ?, ?)
				ON CONFLICT(measurement_point_id) DO UPDATE SET
					building_id = excluded.building_id,
					mac = excluded.mac`,
				p.MeasurementPointID.String(), p.BuildingID.String(), NormaliseMAC(p.MAC),
			); err != nil {
				return fmt.Errorf("upserting receptacle point %s: %w", p.MeasurementPointID, err)
			}
		}
		return nil
	})
}

// inTx runs fn inside a transaction, committing on success.
func (r *SQLiteRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func parseIDs(buildingID, measurementPointID string) (uuid.UUID, uuid.UUID, error) {
	b, err := uuid.Parse(buildingID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: building_id %q: %w", ErrInvalidRow, buildingID, err)
	}
	m, err := uuid.Parse(measurementPointID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: measurement_point_id %q: %w", ErrInvalidRow, measurementPointID, err)
	}
	return b, m, nil
}
