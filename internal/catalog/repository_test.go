package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/meterlink/internal/infrastructure/database"
	_ "github.com/nerrad567/meterlink/migrations" // registers catalog schema
)

// testRepo opens a migrated SQLite database in a temp directory.
func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "catalog.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	return NewSQLiteRepository(db.DB)
}

func int16Ptr(v int16) *int16 { return &v }

func TestMemoryMapRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	rows := []MemoryMapRow{
		{Address: 2422, DataCategory: "current", Phase: "total", FunctionCode: 4, SizeInBytes: 4, DataType: "UINT32", DivideBy: int16Ptr(1000)},
		{Address: 2420, DataCategory: "wiring", FunctionCode: 4, SizeInBytes: 2, DataType: "UINT16"},
	}
	if err := repo.UpsertMemoryMap(ctx, rows); err != nil {
		t.Fatalf("UpsertMemoryMap() error = %v", err)
	}

	// Second import replaces the divisor.
	rows[0].DivideBy = int16Ptr(100)
	if err := repo.UpsertMemoryMap(ctx, rows[:1]); err != nil {
		t.Fatalf("UpsertMemoryMap() second error = %v", err)
	}

	got, err := repo.ListMemoryMap(ctx)
	if err != nil {
		t.Fatalf("ListMemoryMap() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Address != 2420 || got[1].Address != 2422 {
		t.Errorf("order = %d,%d, want 2420,2422", got[0].Address, got[1].Address)
	}
	if got[0].DivideBy != nil {
		t.Errorf("DivideBy = %d, want nil", *got[0].DivideBy)
	}
	if got[1].DivideBy == nil || *got[1].DivideBy != 100 {
		t.Errorf("DivideBy = %v, want 100", got[1].DivideBy)
	}
}

func TestPowerPointsRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	building := uuid.New()
	points := []PowerPoint{
		{BuildingID: building, MeasurementPointID: uuid.New(), Host: "10.0.0.5", Port: 502, UnitID: 1, Channel: 2, ExportSum: true},
		{BuildingID: building, MeasurementPointID: uuid.New(), Host: "10.0.0.5", Port: 502, UnitID: 1, Channel: 1},
	}
	if err := repo.UpsertPowerPoints(ctx, points); err != nil {
		t.Fatalf("UpsertPowerPoints() error = %v", err)
	}

	got, err := repo.ListPowerPoints(ctx)
	if err != nil {
		t.Fatalf("ListPowerPoints() error = %v", err)
	}
	if len(got) != len(points) {
		t.Fatalf("len = %d, want %d", len(got), len(points))
	}
	for i := range points {
		if got[i] != points[i] {
			t.Errorf("point[%d] = %+v, want %+v", i, got[i], points[i])
		}
	}
}

func TestMeterPointsSeparateTables(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	gas := MeterPoint{BuildingID: uuid.New(), MeasurementPointID: uuid.New(), Host: "gas.local", Port: 502, UnitID: 7}
	heat := MeterPoint{BuildingID: uuid.New(), MeasurementPointID: uuid.New(), Host: "heat.local", Port: 503, UnitID: 9}

	if err := repo.UpsertGasPoints(ctx, []MeterPoint{gas}); err != nil {
		t.Fatalf("UpsertGasPoints() error = %v", err)
	}
	if err := repo.UpsertHeatPoints(ctx, []MeterPoint{heat}); err != nil {
		t.Fatalf("UpsertHeatPoints() error = %v", err)
	}

	gotGas, err := repo.ListGasPoints(ctx)
	if err != nil {
		t.Fatalf("ListGasPoints() error = %v", err)
	}
	gotHeat, err := repo.ListHeatPoints(ctx)
	if err != nil {
		t.Fatalf("ListHeatPoints() error = %v", err)
	}
	if len(gotGas) != 1 || gotGas[0] != gas {
		t.Errorf("gas = %+v, want [%+v]", gotGas, gas)
	}
	if len(gotHeat) != 1 || gotHeat[0] != heat {
		t.Errorf("heat = %+v, want [%+v]", gotHeat, heat)
	}
}

func TestMACPointsNormalised(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	aq := AirQualityPoint{BuildingID: uuid.New(), MeasurementPointID: uuid.New(), MAC: "aa-bb-cc-dd-ee-ff", Metric: "co2"}
	rc := ReceptaclePoint{BuildingID: uuid.New(), MeasurementPointID: uuid.New(), MAC: "01:02:03:0a:0b:0c"}

	if err := repo.UpsertAirQualityPoints(ctx, []AirQualityPoint{aq}); err != nil {
		t.Fatalf("UpsertAirQualityPoints() error = %v", err)
	}
	if err := repo.UpsertReceptaclePoints(ctx, []ReceptaclePoint{rc}); err != nil {
		t.Fatalf("UpsertReceptaclePoints() error = %v", err)
	}

	gotAQ, err := repo.ListAirQualityPoints(ctx)
	if err != nil {
		t.Fatalf("ListAirQualityPoints() error = %v", err)
	}
	if len(gotAQ) != 1 || gotAQ[0].MAC != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("air quality = %+v, want MAC AA:BB:CC:DD:EE:FF", gotAQ)
	}

	gotRC, err := repo.ListReceptaclePoints(ctx)
	if err != nil {
		t.Fatalf("ListReceptaclePoints() error = %v", err)
	}
	if len(gotRC) != 1 || gotRC[0].MAC != "01:02:03:0A:0B:0C" {
		t.Errorf("receptacles = %+v, want MAC 01:02:03:0A:0B:0C", gotRC)
	}
}
