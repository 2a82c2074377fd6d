package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/nerrad567/blescan-node/internal/coordinator"
	"github.com/nerrad567/blescan-node/internal/infrastructure/config"
	"github.com/nerrad567/blescan-node/internal/infrastructure/logging"
)

func newParser(t *testing.T, cli *CLI) *kong.Kong {
	t.Helper()
	parser, err := kong.New(cli,
		kong.Name("blescan"),
		kong.Vars{"version": "test", "default_config": defaultConfigPath},
		kong.Exit(func(int) { t.Fatal("parser exited") }),
	)
	if err != nil {
		t.Fatalf("kong.New() error = %v", err)
	}
	return parser
}

func TestCLI_DefaultsToRun(t *testing.T) {
	t.Setenv("BLESCAN_CONFIG", "")
	os.Unsetenv("BLESCAN_CONFIG")

	var cli CLI
	kctx, err := newParser(t, &cli).Parse(nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if kctx.Command() != "run" {
		t.Errorf("Command() = %q, want run", kctx.Command())
	}
	if filepath.Base(cli.Config) != "config.yaml" {
		t.Errorf("Config = %q, want default config path", cli.Config)
	}
}

func TestCLI_ConfigFromEnv(t *testing.T) {
	want := filepath.Join(t.TempDir(), "node.yaml")
	t.Setenv("BLESCAN_CONFIG", want)

	var cli CLI
	if _, err := newParser(t, &cli).Parse([]string{"run", "--ephemeral"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cli.Config != want {
		t.Errorf("Config = %q, want %q", cli.Config, want)
	}
	if !cli.Run.Ephemeral {
		t.Error("Run.Ephemeral = false, want true")
	}
}

func TestCLI_Provision(t *testing.T) {
	var cli CLI
	kctx, err := newParser(t, &cli).Parse([]string{"provision", "broker", "10.0.0.5"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !strings.HasPrefix(kctx.Command(), "provision") {
		t.Errorf("Command() = %q, want provision", kctx.Command())
	}
	if cli.Provision.Slot != "broker" || cli.Provision.Value != "10.0.0.5" {
		t.Errorf("Provision = %+v", cli.Provision)
	}

	if _, err := newParser(t, &CLI{}).Parse([]string{"provision", "hostname", "x"}); err == nil {
		t.Error("Parse() with unknown slot should fail")
	}
}

// writeTestConfig writes a config with the database in a temp dir.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := `
database:
  path: "` + filepath.Join(dir, "blescan.db") + `"
logging:
  level: error
  format: text
`
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestProvisionAndConfigCommands(t *testing.T) {
	ctx := context.Background()
	cli := &CLI{Config: writeTestConfig(t)}

	writes := []ProvisionCmd{
		{Slot: "ssid", Value: "MyWifi"},
		{Slot: "password", Value: "secret123"},
		{Slot: "broker", Value: "10.0.0.5"},
		{Slot: "board_name", Value: "room1"},
	}
	var out bytes.Buffer
	for _, w := range writes {
		if err := w.Run(ctx, cli, &out); err != nil {
			t.Fatalf("provision %s: %v", w.Slot, err)
		}
	}
	if !strings.Contains(out.String(), "broker = mqtt://10.0.0.5") {
		t.Errorf("provision output missing prefixed broker:\n%s", out.String())
	}
	if strings.Contains(out.String(), "secret123") {
		t.Errorf("provision output leaks the secret:\n%s", out.String())
	}

	out.Reset()
	if err := (&ConfigCmd{}).Run(ctx, cli, &out); err != nil {
		t.Fatalf("config: %v", err)
	}
	got := out.String()
	for _, want := range []string{"MyWifi", "*********", "mqtt://10.0.0.5", "room1"} {
		if !strings.Contains(got, want) {
			t.Errorf("config output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "secret123") {
		t.Errorf("config output leaks the secret:\n%s", got)
	}
}

func TestConfigCommand_Defaults(t *testing.T) {
	var out bytes.Buffer
	if err := (&ConfigCmd{}).Run(context.Background(), &CLI{Config: writeTestConfig(t)}, &out); err != nil {
		t.Fatalf("config: %v", err)
	}
	got := out.String()
	for _, want := range []string{"(none)", "mqtt://192.168.241.246", "pokoj_1"} {
		if !strings.Contains(got, want) {
			t.Errorf("config output missing default %q:\n%s", want, got)
		}
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, _, err := loadConfig("/nonexistent/path/config.yaml"); err == nil {
		t.Fatal("loadConfig() should fail with invalid config path")
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "(none)"},
		{"abc", "***"},
	}
	for _, tt := range tests {
		if got := maskSecret(tt.in); got != tt.want {
			t.Errorf("maskSecret(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type fakePoster struct {
	err    error
	posted []coordinator.Event
}

func (f *fakePoster) Post(_ context.Context, ev coordinator.Event) error {
	if f.err != nil {
		return f.err
	}
	f.posted = append(f.posted, ev)
	return nil
}

func (f *fakePoster) TryPost(ev coordinator.Event) bool {
	f.posted = append(f.posted, ev)
	return true
}

func TestPost_LogsOnlyUnexpectedErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantLog bool
	}{
		{name: "delivered", err: nil},
		{name: "cancelled", err: context.Canceled},
		{name: "stopped", err: coordinator.ErrStopped},
		{name: "deadline", err: context.DeadlineExceeded, wantLog: true},
		{name: "other", err: errors.New("boom"), wantLog: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := logging.NewWithWriter(config.LoggingConfig{Level: "debug", Format: "text"}, "test", &buf)

			post(context.Background(), &fakePoster{err: tt.err}, coordinator.AttachLost{}, log)

			logged := strings.Contains(buf.String(), "event not delivered")
			if logged != tt.wantLog {
				t.Errorf("logged = %v, want %v (output %q)", logged, tt.wantLog, buf.String())
			}
		})
	}
}
