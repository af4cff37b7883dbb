package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for meterlink.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Database  DatabaseConfig  `yaml:"database"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Delivery  DeliveryConfig  `yaml:"delivery"`
	Logging   LoggingConfig   `yaml:"logging"`
	Collector CollectorConfig `yaml:"collector"`
	UDP       UDPConfig       `yaml:"udp"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// CatalogConfig controls how the measurement point catalog is seeded.
type CatalogConfig struct {
	// SeedDir holds CSV files imported into the catalog at startup.
	// Empty disables seeding; missing files are skipped.
	SeedDir string `yaml:"seed_dir"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains the health/status HTTP server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
	Auth     APIAuthConfig    `yaml:"auth"`
}

// APIAuthConfig protects the status route.
type APIAuthConfig struct {
	// APIKeyHash is an Argon2id PHC hash of the key clients send in the
	// x-api-key header. Empty leaves the status route open.
	APIKeyHash string `yaml:"api_key_hash"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Token   string `yaml:"token"`
	Org     string `yaml:"org"`
	Bucket  string `yaml:"bucket"`

	// BatchSize caps the points sent in one write request.
	BatchSize int `yaml:"batch_size"`
}

// DeliveryConfig contains the HTTP ingestion endpoint settings.
type DeliveryConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	APIKey  string `yaml:"api_key"`
	Timeout int    `yaml:"timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// CollectorConfig contains the Modbus collection settings.
type CollectorConfig struct {
	// BatchTimeout bounds one connection batch, in seconds.
	BatchTimeout int `yaml:"batch_timeout"`

	// ConnectTimeout bounds one TCP dial, in seconds.
	ConnectTimeout int `yaml:"connect_timeout"`

	// MaxConcurrentBatches caps in-flight batches. 0 means unlimited.
	MaxConcurrentBatches int `yaml:"max_concurrent_batches"`

	Power JobConfig `yaml:"power"`
	Gas   JobConfig `yaml:"gas"`
	Heat  JobConfig `yaml:"heat"`
}

// JobConfig schedules one periodic job. Period and Delay are in seconds.
type JobConfig struct {
	Enabled bool `yaml:"enabled"`
	Period  int  `yaml:"period"`
	Delay   int  `yaml:"delay"`
}

// UDPConfig contains the air-quality/receptacle listener settings.
type UDPConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ListenAddress string `yaml:"listen_address"`

	// ReceiveWindow is how long each invocation listens, in seconds.
	ReceiveWindow int `yaml:"receive_window"`
	BufferSize    int `yaml:"buffer_size"`
	Period        int `yaml:"period"`
	Delay         int `yaml:"delay"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: METERLINK_SECTION_KEY
// For example: METERLINK_DATABASE_PATH, METERLINK_API_PORT
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
// Every job runs on a five minute clock-aligned cycle.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "site-001",
			Name: "meterlink",
		},
		Database: DatabaseConfig{
			Path:        "./data/meterlink.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "meterlink",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Host: "::",
			Port: 30000,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize: 1000,
		},
		Delivery: DeliveryConfig{
			Timeout: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Collector: CollectorConfig{
			BatchTimeout:   30,
			ConnectTimeout: 5,
			Power:          JobConfig{Enabled: true, Period: 300},
			Gas:            JobConfig{Enabled: true, Period: 300},
			Heat:           JobConfig{Enabled: true, Period: 300},
		},
		UDP: UDPConfig{
			Enabled:       true,
			ListenAddress: "0.0.0.0:5005",
			ReceiveWindow: 30,
			BufferSize:    1024,
			Period:        300,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: METERLINK_SECTION_KEY
func applyEnvOverrides(cfg *Config) error {
	// Database
	if v := os.Getenv("METERLINK_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Catalog
	if v := os.Getenv("METERLINK_CATALOG_SEED_DIR"); v != "" {
		cfg.Catalog.SeedDir = v
	}

	// MQTT
	if v := os.Getenv("METERLINK_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("METERLINK_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("METERLINK_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("METERLINK_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("METERLINK_API_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing METERLINK_API_PORT: %w", err)
		}
		cfg.API.Port = port
	}
	if v := os.Getenv("METERLINK_API_KEY_HASH"); v != "" {
		cfg.API.Auth.APIKeyHash = v
	}

	// InfluxDB
	if v := os.Getenv("METERLINK_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Delivery
	if v := os.Getenv("METERLINK_DELIVERY_URL"); v != "" {
		cfg.Delivery.URL = v
	}
	if v := os.Getenv("METERLINK_DELIVERY_API_KEY"); v != "" {
		cfg.Delivery.APIKey = v
	}

	return nil
}

// Validate checks the configuration for errors.
//
// All problems are collected so an operator sees every mistake at once.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url and influxdb.bucket are required when influxdb is enabled")
	}

	if c.Delivery.Enabled && c.Delivery.URL == "" {
		errs = append(errs, "delivery.url is required when delivery is enabled")
	}

	if c.Collector.BatchTimeout <= 0 {
		errs = append(errs, "collector.batch_timeout must be positive")
	}
	if c.Collector.ConnectTimeout <= 0 {
		errs = append(errs, "collector.connect_timeout must be positive")
	}
	if c.Collector.MaxConcurrentBatches < 0 {
		errs = append(errs, "collector.max_concurrent_batches must not be negative")
	}
	errs = append(errs, c.Collector.Power.validate("collector.power")...)
	errs = append(errs, c.Collector.Gas.validate("collector.gas")...)
	errs = append(errs, c.Collector.Heat.validate("collector.heat")...)

	if c.UDP.Enabled {
		if _, _, err := net.SplitHostPort(c.UDP.ListenAddress); err != nil {
			errs = append(errs, fmt.Sprintf("udp.listen_address is invalid: %v", err))
		}
		if c.UDP.BufferSize <= 0 {
			errs = append(errs, "udp.buffer_size must be positive")
		}
		if c.UDP.Period <= 0 {
			errs = append(errs, "udp.period must be positive")
		}
		if c.UDP.Delay < 0 {
			errs = append(errs, "udp.delay must not be negative")
		}
		// The window must close before the next invocation is due.
		if c.UDP.ReceiveWindow <= 0 || (c.UDP.Period > 0 && c.UDP.ReceiveWindow >= c.UDP.Period) {
			errs = append(errs, "udp.receive_window must be positive and shorter than udp.period")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

func (j JobConfig) validate(prefix string) []string {
	if !j.Enabled {
		return nil
	}
	var errs []string
	if j.Period <= 0 {
		errs = append(errs, prefix+".period must be positive")
	}
	if j.Delay < 0 {
		errs = append(errs, prefix+".delay must not be negative")
	}
	return errs
}

// PeriodDuration returns the job period as a Duration.
func (j JobConfig) PeriodDuration() time.Duration {
	return time.Duration(j.Period) * time.Second
}

// DelayDuration returns the job delay as a Duration.
func (j JobConfig) DelayDuration() time.Duration {
	return time.Duration(j.Delay) * time.Second
}

// Job returns the listener schedule in the same shape as the collector jobs.
func (u UDPConfig) Job() JobConfig {
	return JobConfig{Enabled: u.Enabled, Period: u.Period, Delay: u.Delay}
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetBatchTimeout returns the per-batch collection deadline.
func (c *Config) GetBatchTimeout() time.Duration {
	return time.Duration(c.Collector.BatchTimeout) * time.Second
}

// GetConnectTimeout returns the Modbus dial timeout.
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.Collector.ConnectTimeout) * time.Second
}

// GetReceiveWindow returns how long one UDP invocation listens.
func (c *Config) GetReceiveWindow() time.Duration {
	return time.Duration(c.UDP.ReceiveWindow) * time.Second
}

// GetDeliveryTimeout returns the HTTP ingestion request timeout.
func (c *Config) GetDeliveryTimeout() time.Duration {
	return time.Duration(c.Delivery.Timeout) * time.Second
}
