// Package config handles loading and validating meterlink configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (METERLINK_*)
//   - Validation of required fields and job schedules
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (MQTT password, InfluxDB token, ingestion API key)
//     should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Collector.Power.PeriodDuration())
package config
