package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nerrad567/blescan-node/internal/api"
	"github.com/nerrad567/blescan-node/internal/coordinator"
	"github.com/nerrad567/blescan-node/internal/infrastructure/bluetooth"
	"github.com/nerrad567/blescan-node/internal/infrastructure/config"
	"github.com/nerrad567/blescan-node/internal/infrastructure/database"
	"github.com/nerrad567/blescan-node/internal/infrastructure/display"
	"github.com/nerrad567/blescan-node/internal/infrastructure/gpio"
	"github.com/nerrad567/blescan-node/internal/infrastructure/influxdb"
	"github.com/nerrad567/blescan-node/internal/infrastructure/logging"
	"github.com/nerrad567/blescan-node/internal/infrastructure/mqtt"
	"github.com/nerrad567/blescan-node/internal/settings"
	"github.com/nerrad567/blescan-node/internal/wifi"
)

// RunCmd runs the node until a shutdown signal arrives.
type RunCmd struct {
	Ephemeral bool `help:"Keep settings in memory instead of the database"`
}

// Run is invoked by kong for "blescan run".
func (r *RunCmd) Run(ctx context.Context, cli *CLI) error {
	log := logging.Default()
	log.Info("starting blescan",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, log, err := loadConfig(cli.Config)
	if err != nil {
		return err
	}
	log.Info("configuration loaded", "path", cli.Config)

	return run(ctx, cfg, log, r.Ephemeral)
}

// run wires every component and blocks until ctx is cancelled.
// Deferred cleanups run in reverse order of acquisition.
func run(ctx context.Context, cfg *config.Config, log *logging.Logger, ephemeral bool) error {
	checks := make(map[string]api.HealthChecker)

	// Settings store
	var store settings.Store
	if ephemeral {
		store = settings.NewMemoryStore()
		log.Warn("ephemeral settings store, provisioning is lost on exit")
	} else {
		db, err := openDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		log.Info("database ready", "path", db.Path())
		store = settings.NewSQLiteStore(db.DB)
		checks["database"] = db
	}

	// Metrics
	registry := prom.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := coordinator.NewMetrics(registry)

	// Display
	screen, screenHub, err := display.Build(cfg.Display, log.Component("display").Logger, os.Stdout)
	if err != nil {
		return fmt.Errorf("building display: %w", err)
	}

	// Uplink
	uplink := mqtt.New(cfg.MQTT, log.Component("mqtt"))
	defer func() {
		log.Info("closing MQTT client")
		if closeErr := uplink.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	checks["mqtt"] = uplink

	// Wi-Fi
	station := wifi.NewStation(cfg.WiFi, log.Component("wifi"))

	// Bluetooth: one adapter serves both the scanner and the GATT server.
	adapter, err := bluetooth.Enable()
	if err != nil {
		return fmt.Errorf("enabling bluetooth: %w", err)
	}
	bleLog := log.Component("bluetooth")
	provisioner, err := bluetooth.NewProvisioner(adapter, cfg.Bluetooth, bleLog)
	if err != nil {
		return fmt.Errorf("creating provisioner: %w", err)
	}
	if regErr := provisioner.Register(); regErr != nil {
		return fmt.Errorf("registering provisioning service: %w", regErr)
	}
	defer func() {
		if stopErr := provisioner.StopAdvertising(); stopErr != nil {
			log.Warn("error stopping advertising", "error", stopErr)
		}
	}()
	scanner := bluetooth.NewScanner(adapter, cfg.Bluetooth, bleLog)

	// Sighting history (optional, non-fatal)
	var sink coordinator.SightingSink
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(ctx, cfg.InfluxDB)
		if influxErr != nil {
			log.Warn("InfluxDB unavailable, sighting history disabled", "url", cfg.InfluxDB.URL, "error", influxErr)
		} else {
			defer func() {
				log.Info("closing InfluxDB connection")
				if closeErr := influxClient.Close(); closeErr != nil {
					log.Error("error closing InfluxDB", "error", closeErr)
				}
			}()
			influxClient.SetOnError(func(err error) {
				log.Error("InfluxDB write error", "error", err)
			})
			sink = influxClient
			checks["influxdb"] = influxClient
			log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
		}
	} else {
		log.Info("InfluxDB disabled")
	}

	// Coordinator
	node := coordinator.New(coordinator.Deps{
		Store:      store,
		Attacher:   station,
		Uplink:     uplink,
		Advertiser: provisioner,
		Display:    screen,
		Sightings:  sink,
		Metrics:    metrics,
		Logger:     log.Component("coordinator"),
	}, coordinator.Options{
		QueueSize:  cfg.Node.EventQueueSize,
		RetryDelay: cfg.WiFi.RetryDelay,
	})
	wireProducers(ctx, node, uplink, station, provisioner, scanner, log)

	// API and status stream
	var server *api.Server
	if cfg.API.Enabled {
		hub := api.NewHub(cfg.WebSocket, log.Component("api"))
		if screenHub != nil {
			screenHub.Attach(hub)
		}
		node.SetOnChange(hub.BroadcastStatus)

		server, err = api.New(api.Deps{
			Config:   cfg.API,
			WS:       cfg.WebSocket,
			Logger:   log.Component("api"),
			Node:     node,
			Checks:   checks,
			Registry: registry,
			Hub:      hub,
			Version:  version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
	} else if screenHub != nil {
		log.Warn("display backend \"hub\" has no effect while the API is disabled")
	}

	// Event loop
	nodeCtx, stopNode := context.WithCancel(ctx)
	nodeDone := make(chan error, 1)
	go func() {
		nodeDone <- node.Run(nodeCtx)
	}()
	defer func() {
		stopNode()
		if runErr := <-nodeDone; runErr != nil {
			log.Error("coordinator stopped with error", "error", runErr)
		}
	}()

	// Boot waits for the first attach outcome.
	connected, err := node.WaitInitialAttach(ctx, cfg.Boot.InitialAttachTimeout)
	switch {
	case errors.Is(err, coordinator.ErrInitialAttachTimeout):
		log.Warn("no attach outcome yet, continuing boot", "timeout", cfg.Boot.InitialAttachTimeout)
	case err != nil:
		log.Info("shutdown requested during boot")
		return nil
	default:
		log.Info("initial attach resolved", "connected", connected)
	}

	if startErr := scanner.Start(); startErr != nil {
		return fmt.Errorf("starting scanner: %w", startErr)
	}
	defer func() {
		if stopErr := scanner.Stop(); stopErr != nil {
			log.Warn("error stopping scanner", "error", stopErr)
		}
	}()

	if cfg.Button.Enabled {
		button := gpio.NewButton(cfg.Button, log.Component("button"))
		button.SetOnToggle(func() {
			post(ctx, node, coordinator.ModeToggleRequested{}, log)
		})
		if startErr := button.Start(); startErr != nil {
			return fmt.Errorf("starting mode button: %w", startErr)
		}
		defer func() {
			if closeErr := button.Close(); closeErr != nil {
				log.Warn("error closing mode button", "error", closeErr)
			}
		}()
	} else {
		log.Info("mode button disabled")
	}

	if server != nil {
		if startErr := server.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")
	return nil
}

// openDatabase opens the settings database and applies migrations.
func openDatabase(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close() //nolint:errcheck // Migration error takes precedence
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// poster is the part of the coordinator that producers post into.
type poster interface {
	Post(ctx context.Context, ev coordinator.Event) error
	TryPost(ev coordinator.Event) bool
}

// wireProducers routes every asynchronous source into the coordinator.
// Discovery events never block their producer; the rest wait for queue
// space.
func wireProducers(
	ctx context.Context,
	node poster,
	uplink *mqtt.Client,
	station *wifi.Station,
	provisioner *bluetooth.Provisioner,
	scanner *bluetooth.Scanner,
	log *logging.Logger,
) {
	uplink.SetOnConnect(func() {
		post(ctx, node, coordinator.UplinkConnected{}, log)
	})
	uplink.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
		post(ctx, node, coordinator.UplinkDisconnected{}, log)
	})
	uplink.SetOnMessage(func(topic string, payload []byte) {
		post(ctx, node, coordinator.UplinkMessage{Topic: topic, Payload: payload}, log)
	})

	station.SetHandlers(
		func() { post(ctx, node, coordinator.AttachSucceeded{}, log) },
		func() { post(ctx, node, coordinator.AttachLost{}, log) },
	)

	provisioner.SetOnWrite(func(key, value string) {
		slot, err := coordinator.ParseSlot(key)
		if err != nil {
			log.Warn("provisioning write to unknown slot", "key", key)
			return
		}
		post(ctx, node, coordinator.ProvisioningWrite{Slot: slot, Value: value}, log)
	})

	scanner.SetOnFound(func(s bluetooth.Sighting) {
		node.TryPost(coordinator.DeviceDiscovered{Name: s.Name, Address: s.Address, RSSI: s.RSSI})
	})
}

// post delivers ev, logging anything other than a shutdown.
func post(ctx context.Context, node poster, ev coordinator.Event, log *logging.Logger) {
	err := node.Post(ctx, ev)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, coordinator.ErrStopped) {
		return
	}
	log.Warn("event not delivered", "event", fmt.Sprintf("%T", ev), "error", err)
}
