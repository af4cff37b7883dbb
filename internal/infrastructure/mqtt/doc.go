// Package mqtt provides the MQTT publisher used to fan meterlink readings
// out to a broker.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing with QoS guarantees and payload size limits
//   - A retained online/offline status with Last Will and Testament
//
// # Topics
//
//	meterlink/readings/{sensor_type}/{building_id}   one delivery payload
//	meterlink/system/status                          retained online/offline
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.Readings("gems", buildingID)
//	err = client.PublishJSON(topic, payload)
package mqtt
