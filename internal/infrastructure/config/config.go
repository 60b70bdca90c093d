package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for riglab.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Rig      RigConfig      `yaml:"rig"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
	Detect   DetectConfig   `yaml:"detect"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Campaign CampaignConfig `yaml:"campaign"`
}

// RigConfig identifies this bench setup.
type RigConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// DatabaseConfig contains SQLite database settings for the runlog.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
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

// InfluxDBConfig contains InfluxDB connection settings for the attempt
// time series.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// DetectConfig contains USB detection settings.
type DetectConfig struct {
	// ScanInterval is how often the pool rescans the bus (seconds).
	// 0 disables periodic rescans; detection still runs at startup.
	ScanInterval int `yaml:"scan_interval"`

	// Probe enables serial identification probes for boards that share
	// a generic VID:PID.
	Probe bool `yaml:"probe"`
}

// MonitorConfig contains condition monitor tuning.
type MonitorConfig struct {
	// CheckIntervalMs is the period between buffer scans (milliseconds).
	CheckIntervalMs int `yaml:"check_interval_ms"`

	// ReadTimeoutMs bounds each stream read (milliseconds).
	ReadTimeoutMs int `yaml:"read_timeout_ms"`

	// BufferCap caps the rolling buffer (bytes).
	BufferCap int `yaml:"buffer_cap"`

	// HistorySize caps the retained match history (events).
	HistorySize int `yaml:"history_size"`
}

// CampaignConfig contains campaign engine defaults.
type CampaignConfig struct {
	// SettleTimeMs is the post-fire wait before scoring (milliseconds).
	SettleTimeMs int `yaml:"settle_time_ms"`

	// AttemptsPerSetting is the default pulse count per sweep point.
	AttemptsPerSetting int `yaml:"attempts_per_setting"`

	// StopOnSuccess ends sweeps at the first success by default.
	StopOnSuccess bool `yaml:"stop_on_success"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: RIGLAB_SECTION_KEY
// For example: RIGLAB_DATABASE_PATH, RIGLAB_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Rig: RigConfig{
			ID:   "rig-001",
			Name: "riglab",
		},
		Database: DatabaseConfig{
			Path:        "./data/riglab.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Enabled: false,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "riglab-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Detect: DetectConfig{
			ScanInterval: 0,
			Probe:        true,
		},
		Monitor: MonitorConfig{
			CheckIntervalMs: 100,
			ReadTimeoutMs:   50,
			BufferCap:       64 * 1024,
			HistorySize:     256,
		},
		Campaign: CampaignConfig{
			SettleTimeMs:       50,
			AttemptsPerSetting: 1,
			StopOnSuccess:      true,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: RIGLAB_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("RIGLAB_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("RIGLAB_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("RIGLAB_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("RIGLAB_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("RIGLAB_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB - token is the secret, always override in production
	if v := os.Getenv("RIGLAB_INFLUXDB_URL"); v != "" {
		cfg.InfluxDB.URL = v
	}
	if v := os.Getenv("RIGLAB_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("RIGLAB_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Rig.ID == "" {
		errs = append(errs, "rig.id is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
		}
		if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
			errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
		}
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set RIGLAB_INFLUXDB_TOKEN)")
		}
	}

	if c.Monitor.CheckIntervalMs < 0 || c.Monitor.ReadTimeoutMs < 0 {
		errs = append(errs, "monitor intervals must not be negative")
	}
	if c.Monitor.BufferCap < 0 {
		errs = append(errs, "monitor.buffer_cap must not be negative")
	}

	if c.Campaign.SettleTimeMs < 0 {
		errs = append(errs, "campaign.settle_time_ms must not be negative")
	}
	if c.Campaign.AttemptsPerSetting < 0 {
		errs = append(errs, "campaign.attempts_per_setting must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// ScanInterval returns the detect rescan period as a Duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Detect.ScanInterval) * time.Second
}

// MonitorCheckInterval returns the monitor check period as a Duration.
func (c *Config) MonitorCheckInterval() time.Duration {
	return time.Duration(c.Monitor.CheckIntervalMs) * time.Millisecond
}

// MonitorReadTimeout returns the monitor read timeout as a Duration.
func (c *Config) MonitorReadTimeout() time.Duration {
	return time.Duration(c.Monitor.ReadTimeoutMs) * time.Millisecond
}

// CampaignSettleTime returns the campaign settle wait as a Duration.
func (c *Config) CampaignSettleTime() time.Duration {
	return time.Duration(c.Campaign.SettleTimeMs) * time.Millisecond
}
