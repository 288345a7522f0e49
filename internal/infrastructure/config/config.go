package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for SoundBridge Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	Snapcast    SnapcastConfig    `yaml:"snapcast"`
	KNX         KNXConfig         `yaml:"knx"`
	Subsonic    SubsonicConfig    `yaml:"subsonic"`
	InfluxDB    InfluxDBConfig    `yaml:"influxdb"`
	Coordinator CoordinatorConfig `yaml:"coordinator"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// DatabaseConfig contains SQLite database settings.
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

// SnapcastConfig contains Snapcast server connection settings.
type SnapcastConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	// Timeout is the per-request RPC timeout in seconds.
	Timeout int `yaml:"timeout"`
}

// KNXConfig contains settings for the knxd group-socket connection.
type KNXConfig struct {
	Enabled  bool   `yaml:"enabled"`
	KNXDHost string `yaml:"knxd_host"`
	KNXDPort int    `yaml:"knxd_port"`
}

// SubsonicConfig contains settings for the Subsonic-compatible media library.
type SubsonicConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// Client is the client name reported to the Subsonic API.
	Client string `yaml:"client"`
}

// InfluxDBConfig contains InfluxDB connection settings for sync telemetry.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// CoordinatorConfig contains tuning for the protocol coordinator.
type CoordinatorConfig struct {
	// DebounceWindowMS is the window within which repeated synchronization
	// calls for the same target collapse into one. Milliseconds.
	DebounceWindowMS int `yaml:"debounce_window_ms"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: SOUNDBRIDGE_SECTION_KEY
// For example: SOUNDBRIDGE_DATABASE_PATH, SOUNDBRIDGE_MQTT_HOST
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

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        "./data/soundbridge.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Enabled: true,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "soundbridge-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Snapcast: SnapcastConfig{
			Enabled: true,
			Host:    "localhost",
			Port:    1705,
			Timeout: 5,
		},
		KNX: KNXConfig{
			Enabled:  false,
			KNXDHost: "localhost",
			KNXDPort: 6720,
		},
		Subsonic: SubsonicConfig{
			Enabled: false,
			Client:  "soundbridge",
		},
		Coordinator: CoordinatorConfig{
			DebounceWindowMS: 50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: SOUNDBRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("SOUNDBRIDGE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("SOUNDBRIDGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("SOUNDBRIDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("SOUNDBRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Snapcast
	if v := os.Getenv("SOUNDBRIDGE_SNAPCAST_HOST"); v != "" {
		cfg.Snapcast.Host = v
	}

	// Subsonic
	if v := os.Getenv("SOUNDBRIDGE_SUBSONIC_URL"); v != "" {
		cfg.Subsonic.URL = v
	}
	if v := os.Getenv("SOUNDBRIDGE_SUBSONIC_PASSWORD"); v != "" {
		cfg.Subsonic.Password = v
	}

	// InfluxDB
	if v := os.Getenv("SOUNDBRIDGE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.Snapcast.Enabled {
		if c.Snapcast.Port < 1 || c.Snapcast.Port > 65535 {
			errs = append(errs, "snapcast.port must be between 1 and 65535")
		}
	}

	if c.KNX.Enabled {
		if c.KNX.KNXDHost == "" {
			errs = append(errs, "knx.knxd_host is required when knx is enabled")
		}
		if c.KNX.KNXDPort < 1 || c.KNX.KNXDPort > 65535 {
			errs = append(errs, "knx.knxd_port must be between 1 and 65535")
		}
	}

	if c.Subsonic.Enabled && c.Subsonic.URL == "" {
		errs = append(errs, "subsonic.url is required when subsonic is enabled")
	}

	if c.Coordinator.DebounceWindowMS < 0 {
		errs = append(errs, "coordinator.debounce_window_ms must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetDebounceWindow returns the coordinator debounce window as a Duration.
func (c *Config) GetDebounceWindow() time.Duration {
	return time.Duration(c.Coordinator.DebounceWindowMS) * time.Millisecond
}

// GetSnapcastTimeout returns the Snapcast RPC timeout as a Duration.
func (c *Config) GetSnapcastTimeout() time.Duration {
	return time.Duration(c.Snapcast.Timeout) * time.Second
}
