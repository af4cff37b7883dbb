package jobs

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/meterlink/internal/catalog"
	"github.com/nerrad567/meterlink/internal/collect"
	"github.com/nerrad567/meterlink/internal/reading"
	"github.com/nerrad567/meterlink/internal/registers"
)

var cycleTime = time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC)

type delivery struct {
	sensorType string
	records    []reading.Record
}

type fakeDeliverer struct {
	mu    sync.Mutex
	calls []delivery
	err   error
}

func (d *fakeDeliverer) Deliver(_ context.Context, sensorType string, records []reading.Record) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, delivery{sensorType: sensorType, records: records})
	return d.err
}

func (d *fakeDeliverer) deliveries() []delivery {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]delivery(nil), d.calls...)
}

type fakeCounter struct {
	counts map[string][]int
}

func (c *fakeCounter) RecordsCollected(job string, n int) {
	if c.counts == nil {
		c.counts = make(map[string][]int)
	}
	c.counts[job] = append(c.counts[job], n)
}

type fakePoller struct {
	batches []collect.ConnectionBatch
	records []reading.Record
	err     error
}

func (p *fakePoller) Poll(_ context.Context, batches []collect.ConnectionBatch) ([]reading.Record, error) {
	p.batches = batches
	return p.records, p.err
}

type fakeMeterReader struct {
	sensorType string
	points     []catalog.MeterPoint
	records    []reading.Record
	err        error
}

func (r *fakeMeterReader) SensorType() string { return r.sensorType }

func (r *fakeMeterReader) Collect(_ context.Context, points []catalog.MeterPoint) ([]reading.Record, error) {
	r.points = points
	return r.records, r.err
}

// logEntry is one captured log call.
type logEntry struct {
	level string
	msg   string
	args  []any
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) log(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.log("debug", msg, args) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.log("info", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.log("warn", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.log("error", msg, args) }

// find returns the first entry with msg, or nil.
func (l *recordingLogger) find(msg string) *logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.entries {
		if l.entries[i].msg == msg {
			e := l.entries[i]
			return &e
		}
	}
	return nil
}

// arg returns the value logged under key.
func (e *logEntry) arg(key string) string {
	for i := 0; i+1 < len(e.args); i += 2 {
		if e.args[i] == key {
			return fmt.Sprint(e.args[i+1])
		}
	}
	return ""
}

func testRecord(building uuid.UUID) reading.Record {
	return reading.Record{
		BuildingID:         building,
		MeasurementPointID: uuid.New(),
		RecordedAt:         cycleTime,
		Fields:             []reading.Field{{Name: "value", Value: reading.Float(1)}},
	}
}

// testMemoryMap covers every register of channels.
func testMemoryMap(t *testing.T, channels ...uint16) *registers.MemoryMap {
	t.Helper()

	var ds []registers.Descriptor
	for _, ch := range channels {
		addrs, err := registers.ChannelAddresses(ch)
		if err != nil {
			t.Fatalf("ChannelAddresses(%d) error = %v", ch, err)
		}
		for _, a := range addrs {
			ds = append(ds, registers.Descriptor{Address: a, Type: registers.Uint16, Divisor: 1})
		}
	}

	mm, err := registers.NewMemoryMap(ds)
	if err != nil {
		t.Fatalf("NewMemoryMap() error = %v", err)
	}
	return mm
}

func powerPoint(host string, channel uint16) catalog.PowerPoint {
	return catalog.PowerPoint{
		BuildingID:         uuid.New(),
		MeasurementPointID: uuid.New(),
		Host:               host,
		Port:               502,
		UnitID:             1,
		Channel:            channel,
	}
}
