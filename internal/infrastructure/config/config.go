package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the blescan node.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Node      NodeConfig      `yaml:"node"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	WiFi      WiFiConfig      `yaml:"wifi"`
	Bluetooth BluetoothConfig `yaml:"bluetooth"`
	Button    ButtonConfig    `yaml:"button"`
	Display   DisplayConfig   `yaml:"display"`
	Boot      BootConfig      `yaml:"boot"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// NodeConfig contains node identity settings.
type NodeConfig struct {
	// EventQueueSize is the capacity of the coordinator's event channel.
	EventQueueSize int `yaml:"event_queue_size"`
}

// DatabaseConfig contains SQLite database settings.
// The database holds the provisioned configuration record.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains settings for the uplink session.
// The broker address itself is provisioned at runtime and is not part of this file.
type MQTTConfig struct {
	ClientID  string              `yaml:"client_id"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	KeepAlive int                 `yaml:"keep_alive"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
	LWT       bool                `yaml:"lwt"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// WiFiConfig contains the wpa_supplicant attach driver settings.
type WiFiConfig struct {
	Interface string `yaml:"interface"`
	Binary    string `yaml:"binary"`
	// ConfigPath is where the generated wpa_supplicant.conf is written.
	ConfigPath string `yaml:"config_path"`
	// DHCPCommand runs after association, e.g. "dhclient -1 wlan0". Empty disables it.
	DHCPCommand string `yaml:"dhcp_command"`
	// RetryDelay is the pause before re-issuing an attach whose request failed outright.
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// BluetoothConfig contains scanner and provisioning GATT settings.
type BluetoothConfig struct {
	// LocalName is the advertised name while provisioning is writable.
	LocalName      string `yaml:"local_name"`
	ServiceUUID    string `yaml:"service_uuid"`
	SSIDUUID       string `yaml:"ssid_uuid"`
	PasswordUUID   string `yaml:"password_uuid"`
	BrokerUUID     string `yaml:"broker_uuid"`
	BoardNameUUID  string `yaml:"board_name_uuid"`
	MaxWriteLength int    `yaml:"max_write_length"`
	// ScanInterval of zero scans continuously.
	ScanInterval time.Duration `yaml:"scan_interval"`
	ScanWindow   time.Duration `yaml:"scan_window"`
}

// ButtonConfig contains the GPIO mode toggle button settings.
type ButtonConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Chip      string        `yaml:"chip"`
	Line      int           `yaml:"line"`
	ActiveLow bool          `yaml:"active_low"`
	Debounce  time.Duration `yaml:"debounce"`
}

// DisplayConfig selects the status display backends.
type DisplayConfig struct {
	// Backends is any of "log", "console", "hub".
	Backends []string `yaml:"backends"`
	Columns  int      `yaml:"columns"`
}

// BootConfig contains boot sequencing settings.
type BootConfig struct {
	// InitialAttachTimeout bounds the wait for the first attach outcome.
	// Zero waits until the outcome arrives.
	InitialAttachTimeout time.Duration `yaml:"initial_attach_timeout"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings for sighting history.
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

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults), skipped when path is empty
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: BLESCAN_SECTION_KEY
// For example: BLESCAN_DATABASE_PATH, BLESCAN_WIFI_INTERFACE
//
// Parameters:
//   - path: Path to the YAML configuration file, or "" for defaults only
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If the file cannot be read, parsed, or fails validation
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
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
		Node: NodeConfig{
			EventQueueSize: 64,
		},
		Database: DatabaseConfig{
			Path:        "./data/blescan.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			KeepAlive: 60,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		WiFi: WiFiConfig{
			Interface:  "wlan0",
			Binary:     "/usr/sbin/wpa_supplicant",
			ConfigPath: "./data/wpa_supplicant.conf",
			RetryDelay: time.Second,
		},
		Bluetooth: BluetoothConfig{
			LocalName:      "ESP_WIFI_CONFIG",
			ServiceUUID:    "000000ee-0000-1000-8000-00805f9b34fb",
			SSIDUUID:       "0000ff01-0000-1000-8000-00805f9b34fb",
			PasswordUUID:   "0000ff02-0000-1000-8000-00805f9b34fb",
			BrokerUUID:     "0000ff03-0000-1000-8000-00805f9b34fb",
			BoardNameUUID:  "0000ff04-0000-1000-8000-00805f9b34fb",
			MaxWriteLength: 32,
			ScanWindow:     10 * time.Second,
		},
		Button: ButtonConfig{
			Chip:      "gpiochip0",
			Line:      17,
			ActiveLow: true,
			Debounce:  50 * time.Millisecond,
		},
		Display: DisplayConfig{
			Backends: []string{"log"},
			Columns:  16,
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: BLESCAN_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("BLESCAN_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("BLESCAN_MQTT_CLIENT_ID"); v != "" {
		cfg.MQTT.ClientID = v
	}
	if v := os.Getenv("BLESCAN_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("BLESCAN_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Wi-Fi
	if v := os.Getenv("BLESCAN_WIFI_INTERFACE"); v != "" {
		cfg.WiFi.Interface = v
	}

	// Button
	if v := os.Getenv("BLESCAN_BUTTON_LINE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Button.Line = n
		}
	}

	// API
	if v := os.Getenv("BLESCAN_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// Logging
	if v := os.Getenv("BLESCAN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// InfluxDB
	if v := os.Getenv("BLESCAN_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// MaxRadioWriteLength is the largest accepted bluetooth.max_write_length.
// Stored values are capped at 64 bytes and a broker write gains the
// 7-byte "mqtt://" prefix before it is stored.
const MaxRadioWriteLength = 64 - len("mqtt://")

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.Node.EventQueueSize < 2 {
		errs = append(errs, "node.event_queue_size must be at least 2")
	}

	if c.WiFi.Interface == "" {
		errs = append(errs, "wifi.interface is required")
	}
	if c.WiFi.RetryDelay < 0 {
		errs = append(errs, "wifi.retry_delay must not be negative")
	}

	if c.Bluetooth.MaxWriteLength < 1 || c.Bluetooth.MaxWriteLength > MaxRadioWriteLength {
		errs = append(errs, fmt.Sprintf("bluetooth.max_write_length must be between 1 and %d", MaxRadioWriteLength))
	}
	if c.Bluetooth.ScanInterval > 0 && c.Bluetooth.ScanWindow > c.Bluetooth.ScanInterval {
		errs = append(errs, "bluetooth.scan_window must not exceed bluetooth.scan_interval")
	}

	if c.Button.Enabled && c.Button.Chip == "" {
		errs = append(errs, "button.chip is required when the button is enabled")
	}

	if c.Display.Columns < 1 {
		errs = append(errs, "display.columns must be at least 1")
	}
	for _, b := range c.Display.Backends {
		switch b {
		case "log", "console", "hub":
		default:
			errs = append(errs, fmt.Sprintf("display.backends: unknown backend %q", b))
		}
	}

	if c.Boot.InitialAttachTimeout < 0 {
		errs = append(errs, "boot.initial_attach_timeout must not be negative")
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.API.Enabled {
		if !strings.HasPrefix(c.WebSocket.Path, "/") {
			errs = append(errs, "websocket.path must start with /")
		}
		if c.WebSocket.PingInterval < 1 || c.WebSocket.PongTimeout < 1 {
			errs = append(errs, "websocket.ping_interval and websocket.pong_timeout must be at least 1")
		}
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
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
