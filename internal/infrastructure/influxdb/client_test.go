package influxdb

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/blescan-node/internal/infrastructure/config"
)

// testConfig returns a configuration for a local dev InfluxDB.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "blescan-dev-token",
		Org:           "blescan",
		Bucket:        "sightings",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

// skipIfNoInfluxDB skips the test if InfluxDB is not running.
func skipIfNoInfluxDB(t *testing.T) {
	t.Helper()
	if os.Getenv("RUN_INTEGRATION") == "" {
		client, err := Connect(context.Background(), testConfig())
		if err != nil {
			t.Skip("InfluxDB not available, skipping integration test")
		}
		client.Close()
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	_, err := Connect(context.Background(), cfg)
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:1"

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Connect(ctx, cfg)
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestNilClient(t *testing.T) {
	var c *Client

	if c.IsConnected() {
		t.Error("nil client reports connected")
	}
	c.RecordSighting("room1", "Phone", "aa:bb:cc:dd:ee:ff", -60)
	c.Flush()
	if err := c.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
}

func TestSightingPoint(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	p := sightingPoint("room1", "Phone", "aa:bb:cc:dd:ee:ff", -60, ts)

	line := write.PointToLineProtocol(p, time.Second)
	want := "ble_sighting,address=aa:bb:cc:dd:ee:ff,board=room1,name=Phone rssi=-60i 1700000000\n"
	if line != want {
		t.Errorf("line protocol = %q, want %q", line, want)
	}
}

func TestSightingPoint_EscapesName(t *testing.T) {
	p := sightingPoint("room1", "Jan's Watch", "aa:bb:cc:dd:ee:ff", -71, time.Unix(0, 0))

	line := write.PointToLineProtocol(p, time.Second)
	if !strings.Contains(line, `name=Jan's\ Watch`) {
		t.Errorf("expected escaped space in tag, got %q", line)
	}
}

func TestRecordSighting_Integration(t *testing.T) {
	skipIfNoInfluxDB(t)

	client, err := Connect(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	writeErrs := make(chan error, 1)
	client.SetOnError(func(err error) {
		select {
		case writeErrs <- err:
		default:
		}
	})

	client.RecordSighting("room1", "Phone", "aa:bb:cc:dd:ee:ff", -60)
	client.Flush()

	select {
	case err := <-writeErrs:
		t.Errorf("async write error = %v", err)
	default:
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}
