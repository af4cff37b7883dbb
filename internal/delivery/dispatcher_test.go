package delivery

import (
	"context"
	"errors"
	"testing"

	"github.com/nerrad567/meterlink/internal/reading"
)

func TestDispatcherDeliversToEverySink(t *testing.T) {
	httpSink := &fakeSink{name: "http"}
	broker := &fakeSink{name: "mqtt"}
	d := NewDispatcher(httpSink, broker)

	records := []reading.Record{testRecord(buildingA, point1), testRecord(buildingB, point2)}
	if err := d.Deliver(context.Background(), reading.SensorPower, records); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}

	for _, s := range []*fakeSink{httpSink, broker} {
		if len(s.payloads) != 2 {
			t.Errorf("%s received %d payloads, want 2 (one per building)", s.name, len(s.payloads))
		}
	}
	if got := d.Sinks(); len(got) != 2 || got[0] != "http" || got[1] != "mqtt" {
		t.Errorf("Sinks() = %v", got)
	}
}

func TestDispatcherIsolatesFailingSink(t *testing.T) {
	cause := errors.New("connection refused")
	failing := &fakeSink{name: "http", err: cause}
	healthy := &fakeSink{name: "mqtt"}
	logger := &recordingLogger{}

	d := NewDispatcher(failing, healthy)
	d.SetLogger(logger)

	records := []reading.Record{testRecord(buildingA, point1), testRecord(buildingB, point2)}
	err := d.Deliver(context.Background(), reading.SensorGas, records)

	if !errors.Is(err, cause) {
		t.Fatalf("Deliver() error = %v, want wrapped %v", err, cause)
	}
	if len(healthy.payloads) != 2 {
		t.Errorf("healthy sink received %d payloads, want 2", len(healthy.payloads))
	}
	if len(failing.payloads) != 2 {
		t.Errorf("failing sink attempted %d payloads, want 2 (no retries, no early stop)", len(failing.payloads))
	}
	if len(logger.errors) != 2 {
		t.Errorf("logged %d errors, want 2", len(logger.errors))
	}
}

func TestDispatcherNothingToSend(t *testing.T) {
	s := &fakeSink{name: "http"}
	d := NewDispatcher(s)

	if err := d.Deliver(context.Background(), reading.SensorHeat, nil); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if len(s.payloads) != 0 {
		t.Errorf("sink received %d payloads, want 0", len(s.payloads))
	}
}

func TestDispatcherWithoutSinks(t *testing.T) {
	d := NewDispatcher()
	d.SetLogger(nil)

	if err := d.Deliver(context.Background(), reading.SensorHeat, []reading.Record{testRecord(buildingA, point1)}); err != nil {
		t.Errorf("Deliver() error = %v, want nil", err)
	}
}
