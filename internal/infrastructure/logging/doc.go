// Package logging provides structured logging for meterlink.
//
// This package wraps Go's standard log/slog package so every component
// (collectors, scheduler, delivery sinks, API) emits the same shape of
// record.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version, site) on all log entries
//   - Per-component child loggers via Component
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0", cfg.Site.ID)
//	poller.SetLogger(logger.Component("collect"))
//
// Never log the ingestion API key, MQTT password or InfluxDB token.
package logging
