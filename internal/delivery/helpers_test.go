package delivery

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/meterlink/internal/reading"
)

var (
	buildingA = uuid.MustParse("6f1c7d1e-0000-4000-8000-00000000000a")
	buildingB = uuid.MustParse("6f1c7d1e-0000-4000-8000-00000000000b")
	cycleTime = time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC)
)

func testRecord(building uuid.UUID, point string, fields ...reading.Field) reading.Record {
	return reading.Record{
		BuildingID:         building,
		MeasurementPointID: uuid.MustParse(point),
		RecordedAt:         cycleTime,
		Fields:             fields,
	}
}

// fakeSink records payloads and optionally fails every delivery.
type fakeSink struct {
	name string
	err  error

	mu       sync.Mutex
	payloads []Payload
}

func (s *fakeSink) Name() string { return s.name }

func (s *fakeSink) Deliver(_ context.Context, p Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, p)
	return s.err
}

// recordingLogger counts error records.
type recordingLogger struct {
	mu     sync.Mutex
	errors []string
}

func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Info(string, ...any)  {}
func (l *recordingLogger) Warn(string, ...any)  {}

func (l *recordingLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}
