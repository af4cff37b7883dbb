// Package delivery ships collected readings to their consumers.
//
// Each cycle's records are split into one Payload per building and handed
// to every configured Sink:
//
//   - HTTPSink posts the payload as JSON to the ingestion endpoint
//   - MQTTSink publishes it on meterlink/readings/{sensor_type}/{building_id}
//   - InfluxSink writes one point per record
//
// The Dispatcher logs each failed delivery and moves on. Nothing is
// retried or buffered; the next cycle produces fresh readings.
package delivery
