// Package influxdb provides InfluxDB connectivity for meterlink.
//
// It wraps the official influxdb-client-go v2 library. Collected readings
// become one point per record: measurement = sensor type, tags =
// building and measurement point, fields = the non-null values.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.WritePoints(ctx, points)
//
// # Error Handling
//
// Writes are blocking; a rejected request is returned as ErrWriteFailed.
// Connection and health check errors are returned directly.
package influxdb
