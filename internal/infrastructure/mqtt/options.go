package mqtt

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/blescan-node/internal/infrastructure/config"
)

const (
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout bounds how long a background publish or subscribe is watched.
	defaultPublishTimeout = 5 * time.Second

	defaultDisconnectQuiesce = 250 // milliseconds

	defaultPort    = "1883"
	defaultTLSPort = "8883"

	maxQoS = 2

	tlsMinVersion = tls.VersionTLS12
)

// ParseBrokerURI converts a provisioned relay URI into a paho broker URL.
//
//	mqtt://10.0.0.5        -> tcp://10.0.0.5:1883
//	mqtt://broker:1884     -> tcp://broker:1884
//	mqtts://broker         -> ssl://broker:8883
func ParseBrokerURI(uri string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(uri))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidBrokerURI, err)
	}

	var scheme, port string
	switch strings.ToLower(u.Scheme) {
	case "mqtt", "tcp":
		scheme, port = "tcp", defaultPort
	case "mqtts", "ssl", "tls":
		scheme, port = "ssl", defaultTLSPort
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q in %q", ErrInvalidBrokerURI, u.Scheme, uri)
	}

	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("%w: missing host in %q", ErrInvalidBrokerURI, uri)
	}
	if p := u.Port(); p != "" {
		port = p
	}

	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(host, port)), nil
}

// buildClientOptions creates paho options for one session.
func buildClientOptions(cfg config.MQTTConfig, brokerURL, clientID string) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	// Subscriptions are re-issued by the node on every connect.
	opts.SetCleanSession(true)
	opts.SetResumeSubs(false)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second)
	opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)
	opts.SetConnectTimeout(defaultConnectTimeout)

	keepAlive := time.Duration(cfg.KeepAlive) * time.Second
	if keepAlive <= 0 {
		keepAlive = 60 * time.Second
	}
	opts.SetKeepAlive(keepAlive)

	if strings.HasPrefix(brokerURL, "ssl://") {
		opts.SetTLSConfig(&tls.Config{MinVersion: tlsMinVersion})
	}

	return opts
}

// configureLWT makes the broker publish a retained offline status if the
// node drops off without a clean disconnect.
func configureLWT(opts *pahomqtt.ClientOptions, clientID string) {
	opts.SetWill(Topics{}.Status(clientID), buildStatusPayload(clientID, "offline"), 1, true)
}

func buildStatusPayload(clientID, status string) string {
	return fmt.Sprintf(
		`{"status":"%s","client_id":"%s","timestamp":"%s"}`,
		status,
		clientID,
		time.Now().UTC().Format(time.RFC3339),
	)
}
