package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  client_id: "test-client"
  lwt: true
wifi:
  interface: "wlan1"
  retry_delay: 2s
bluetooth:
  local_name: "BENCH_NODE"
  scan_interval: 30s
  scan_window: 5s
button:
  enabled: true
  chip: "gpiochip4"
  line: 22
boot:
  initial_attach_timeout: 45s
display:
  backends: ["log", "console"]
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if cfg.MQTT.ClientID != "test-client" {
		t.Errorf("MQTT.ClientID = %q, want %q", cfg.MQTT.ClientID, "test-client")
	}
	if cfg.WiFi.Interface != "wlan1" {
		t.Errorf("WiFi.Interface = %q, want %q", cfg.WiFi.Interface, "wlan1")
	}
	if cfg.WiFi.RetryDelay != 2*time.Second {
		t.Errorf("WiFi.RetryDelay = %v, want 2s", cfg.WiFi.RetryDelay)
	}
	if cfg.Bluetooth.LocalName != "BENCH_NODE" {
		t.Errorf("Bluetooth.LocalName = %q, want %q", cfg.Bluetooth.LocalName, "BENCH_NODE")
	}
	// Unset fields keep their defaults.
	if cfg.Bluetooth.SSIDUUID != "0000ff01-0000-1000-8000-00805f9b34fb" {
		t.Errorf("Bluetooth.SSIDUUID = %q, want default", cfg.Bluetooth.SSIDUUID)
	}
	if cfg.Button.Line != 22 {
		t.Errorf("Button.Line = %d, want 22", cfg.Button.Line)
	}
	if cfg.Boot.InitialAttachTimeout != 45*time.Second {
		t.Errorf("Boot.InitialAttachTimeout = %v, want 45s", cfg.Boot.InitialAttachTimeout)
	}
	if len(cfg.Display.Backends) != 2 {
		t.Errorf("Display.Backends = %v, want 2 entries", cfg.Display.Backends)
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Database.Path != "./data/blescan.db" {
		t.Errorf("Database.Path = %q, want default", cfg.Database.Path)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
database:
  path: ""
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty database.path, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}, wantErr: false},
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "zero event queue", mutate: func(c *Config) { c.Node.EventQueueSize = 0 }, wantErr: true},
		{name: "single slot event queue", mutate: func(c *Config) { c.Node.EventQueueSize = 1 }, wantErr: true},
		{name: "two slot event queue", mutate: func(c *Config) { c.Node.EventQueueSize = 2 }, wantErr: false},
		{name: "missing wifi interface", mutate: func(c *Config) { c.WiFi.Interface = "" }, wantErr: true},
		{name: "negative retry delay", mutate: func(c *Config) { c.WiFi.RetryDelay = -time.Second }, wantErr: true},
		{name: "write length above store limit", mutate: func(c *Config) { c.Bluetooth.MaxWriteLength = 65 }, wantErr: true},
		{name: "write length leaves no room for broker prefix", mutate: func(c *Config) { c.Bluetooth.MaxWriteLength = 58 }, wantErr: true},
		{name: "write length fits prefixed broker", mutate: func(c *Config) { c.Bluetooth.MaxWriteLength = MaxRadioWriteLength }, wantErr: false},
		{
			name: "scan window longer than interval",
			mutate: func(c *Config) {
				c.Bluetooth.ScanInterval = 5 * time.Second
				c.Bluetooth.ScanWindow = 10 * time.Second
			},
			wantErr: true,
		},
		{
			name:    "button without chip",
			mutate:  func(c *Config) { c.Button.Enabled = true; c.Button.Chip = "" },
			wantErr: true,
		},
		{name: "unknown display backend", mutate: func(c *Config) { c.Display.Backends = []string{"lcd"} }, wantErr: true},
		{name: "negative boot timeout", mutate: func(c *Config) { c.Boot.InitialAttachTimeout = -1 }, wantErr: true},
		{name: "invalid port low", mutate: func(c *Config) { c.API.Port = 0 }, wantErr: true},
		{name: "invalid port high", mutate: func(c *Config) { c.API.Port = 70000 }, wantErr: true},
		{name: "port ignored when api disabled", mutate: func(c *Config) { c.API.Enabled = false; c.API.Port = 0 }, wantErr: false},
		{name: "websocket path without slash", mutate: func(c *Config) { c.WebSocket.Path = "ws" }, wantErr: true},
		{name: "zero ping interval", mutate: func(c *Config) { c.WebSocket.PingInterval = 0 }, wantErr: true},
		{name: "influx without url", mutate: func(c *Config) { c.InfluxDB.Enabled = true }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("BLESCAN_DATABASE_PATH", "/custom/path.db")
	t.Setenv("BLESCAN_MQTT_CLIENT_ID", "bench-1")
	t.Setenv("BLESCAN_MQTT_USERNAME", "testuser")
	t.Setenv("BLESCAN_MQTT_PASSWORD", "testpass")
	t.Setenv("BLESCAN_WIFI_INTERFACE", "wlp2s0")
	t.Setenv("BLESCAN_BUTTON_LINE", "27")
	t.Setenv("BLESCAN_API_HOST", "192.168.1.1")
	t.Setenv("BLESCAN_LOG_LEVEL", "debug")
	t.Setenv("BLESCAN_INFLUXDB_TOKEN", "secret-token")

	applyEnvOverrides(cfg)

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}
	if cfg.MQTT.ClientID != "bench-1" {
		t.Errorf("MQTT.ClientID = %q, want %q", cfg.MQTT.ClientID, "bench-1")
	}
	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}
	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}
	if cfg.WiFi.Interface != "wlp2s0" {
		t.Errorf("WiFi.Interface = %q, want %q", cfg.WiFi.Interface, "wlp2s0")
	}
	if cfg.Button.Line != 27 {
		t.Errorf("Button.Line = %d, want 27", cfg.Button.Line)
	}
	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
}

func TestApplyEnvOverrides_BadButtonLine(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("BLESCAN_BUTTON_LINE", "seventeen")

	applyEnvOverrides(cfg)

	if cfg.Button.Line != 17 {
		t.Errorf("Button.Line = %d, want default 17", cfg.Button.Line)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}
	if cfg.Display.Columns != 16 {
		t.Errorf("defaultConfig Display.Columns = %d, want 16", cfg.Display.Columns)
	}
	if cfg.Bluetooth.LocalName != "ESP_WIFI_CONFIG" {
		t.Errorf("defaultConfig Bluetooth.LocalName = %q", cfg.Bluetooth.LocalName)
	}
	if cfg.Boot.InitialAttachTimeout != 0 {
		t.Errorf("defaultConfig Boot.InitialAttachTimeout = %v, want 0 (wait for outcome)", cfg.Boot.InitialAttachTimeout)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("defaultConfig API.Port = %d, want 8080", cfg.API.Port)
	}
}
