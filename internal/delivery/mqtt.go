package delivery

import (
	"context"

	"github.com/nerrad567/meterlink/internal/infrastructure/mqtt"
)

// Publisher is the subset of mqtt.Client the sink needs.
type Publisher interface {
	PublishJSON(topic string, v any) error
}

// MQTTSink publishes each payload on its readings topic.
type MQTTSink struct {
	pub Publisher
}

// NewMQTTSink creates a sink over pub.
func NewMQTTSink(pub Publisher) *MQTTSink {
	return &MQTTSink{pub: pub}
}

// Name implements Sink.
func (s *MQTTSink) Name() string { return "mqtt" }

// Deliver implements Sink. The publish itself is bounded by the client's
// publish timeout; ctx is only checked before sending.
func (s *MQTTSink) Deliver(ctx context.Context, p Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.pub.PublishJSON(mqtt.Topics{}.Readings(p.SensorType, p.BuildingID.String()), p)
}
