package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/nerrad567/meterlink/internal/catalog"
	"github.com/nerrad567/meterlink/internal/reading"
	"github.com/nerrad567/meterlink/internal/registers"
)

func TestPowerJob_Run(t *testing.T) {
	mm := testMemoryMap(t, 1, 2)
	points := []catalog.PowerPoint{
		powerPoint("10.0.0.1", 1),
		powerPoint("10.0.0.2", 1),
		powerPoint("10.0.0.1", 2),
	}
	snap := catalog.NewSnapshot(mm, points, nil, nil, nil, nil)

	records := []reading.Record{testRecord(uuid.New()), testRecord(uuid.New())}
	poller := &fakePoller{records: records}
	d := &fakeDeliverer{}
	counter := &fakeCounter{}

	job := NewPowerJob(snap, poller, d)
	job.SetCounter(counter)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(poller.batches) != 2 {
		t.Errorf("polled %d batches, want 2", len(poller.batches))
	}
	got := d.deliveries()
	if len(got) != 1 || got[0].sensorType != reading.SensorPower || len(got[0].records) != 2 {
		t.Errorf("deliveries = %+v", got)
	}
	if c := counter.counts[NamePower]; len(c) != 1 || c[0] != 2 {
		t.Errorf("counts = %v, want [2]", c)
	}
}

func TestPowerJob_MissingAddressAbortsCycle(t *testing.T) {
	// Channel 3 has no registers in the map.
	snap := catalog.NewSnapshot(testMemoryMap(t, 1), []catalog.PowerPoint{
		powerPoint("10.0.0.1", 1),
		powerPoint("10.0.0.1", 3),
	}, nil, nil, nil, nil)

	poller := &fakePoller{}
	d := &fakeDeliverer{}
	job := NewPowerJob(snap, poller, d)

	err := job.Run(context.Background())
	if !errors.Is(err, registers.ErrMissingAddress) {
		t.Fatalf("Run() error = %v, want ErrMissingAddress", err)
	}
	if poller.batches != nil {
		t.Error("poller called after grouping failed")
	}
	if len(d.deliveries()) != 0 {
		t.Error("delivered after grouping failed")
	}

	// The next cycle runs again rather than caching the failure.
	if err := job.Run(context.Background()); !errors.Is(err, registers.ErrMissingAddress) {
		t.Errorf("second Run() error = %v", err)
	}
}

func TestPowerJob_NoPoints(t *testing.T) {
	logger := &recordingLogger{}
	d := &fakeDeliverer{}
	job := NewPowerJob(catalog.NewSnapshot(testMemoryMap(t), nil, nil, nil, nil, nil), &fakePoller{}, d)
	job.SetLogger(logger)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(d.deliveries()) != 0 {
		t.Error("delivered with no points")
	}
	if logger.find("no power points configured; cycle skipped") == nil {
		t.Error("missing skip log")
	}
}

func TestPowerJob_Errors(t *testing.T) {
	snap := catalog.NewSnapshot(testMemoryMap(t, 1), []catalog.PowerPoint{powerPoint("10.0.0.1", 1)}, nil, nil, nil, nil)
	errBoom := errors.New("boom")

	tests := []struct {
		name    string
		poller  *fakePoller
		deliver error
	}{
		{name: "poll fails", poller: &fakePoller{err: errBoom}},
		{name: "delivery fails", poller: &fakePoller{records: []reading.Record{testRecord(uuid.New())}}, deliver: errBoom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewPowerJob(snap, tt.poller, &fakeDeliverer{err: tt.deliver})
			if err := job.Run(context.Background()); !errors.Is(err, errBoom) {
				t.Errorf("Run() error = %v, want %v", err, errBoom)
			}
		})
	}
}
