package mqtt

import (
	"fmt"
	"strings"
)

// TopicPrefix is the root of every topic meterlink publishes.
const TopicPrefix = "meterlink"

// Topics provides builders for meterlink MQTT topics.
//
//	topic := mqtt.Topics{}.Readings("gems", buildingID)
//	// Returns: "meterlink/readings/gems/<building-id>"
type Topics struct{}

// Readings returns the topic carrying one delivery payload for a sensor
// type and building.
//
// Example: meterlink/readings/iaq/0b6c1f1e-...
func (Topics) Readings(sensorType, buildingID string) string {
	return fmt.Sprintf("%s/readings/%s/%s", TopicPrefix, sensorType, buildingID)
}

// AllReadings returns a wildcard subscription for every readings topic.
func (Topics) AllReadings() string {
	return TopicPrefix + "/readings/#"
}

// SystemStatus returns the retained online/offline status topic.
// The broker publishes the Last Will here on an unexpected disconnect.
func (Topics) SystemStatus() string {
	return TopicPrefix + "/system/status"
}

// validPublishTopic reports whether topic can be published to.
// Wildcards are only meaningful in subscriptions.
func validPublishTopic(topic string) bool {
	return topic != "" && !strings.ContainsAny(topic, "+#")
}
