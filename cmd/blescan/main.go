// blescan - BLE scanner node
//
// A blescan node attaches to Wi-Fi with provisioned credentials, relays named
// BLE devices it sees to an MQTT broker, and switches to a BLE GATT
// provisioning mode when its button is pressed.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	_ "github.com/nerrad567/blescan-node/migrations"

	"github.com/nerrad567/blescan-node/internal/infrastructure/config"
	"github.com/nerrad567/blescan-node/internal/infrastructure/logging"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// CLI is the command-line grammar.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"${default_config}" env:"BLESCAN_CONFIG" type:"path"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run       RunCmd       `cmd:"" default:"1" help:"Run the node (default)"`
	Provision ProvisionCmd `cmd:"" help:"Write one provisioning slot to the settings store"`
	Show      ConfigCmd    `cmd:"" name:"config" help:"Print the provisioned configuration (secret masked)"`
}

func main() {
	// A missing .env is normal; BLESCAN_* may come from the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: reading .env: %v\n", err)
	}

	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("blescan"),
		kong.Description("BLE scanner node with Wi-Fi attach, MQTT relay and BLE provisioning."),
		kong.UsageOnError(),
		kong.Vars{
			"version":        fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
			"default_config": defaultConfigPath,
		},
		kong.Bind(&cli),
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.BindTo(io.Writer(os.Stdout), (*io.Writer)(nil)),
	)

	if err := kctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

// loadConfig reads the configuration and builds the configured logger.
func loadConfig(path string) (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, logging.New(cfg.Logging, version), nil
}
