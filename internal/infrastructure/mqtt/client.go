package mqtt

import (
	"context"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/nerrad567/blescan-node/internal/infrastructure/config"
)

// Client is the node's uplink session to the relay broker.
//
// Unlike a service that cannot run without its broker, the node starts the
// session in the background and learns the outcome through callbacks. The
// broker address comes from the provisioned record, so a session can be
// stopped and started again against a different URI.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Callbacks from a stopped session are discarded.
type Client struct {
	cfg      config.MQTTConfig
	clientID string

	mu        sync.Mutex
	client    pahomqtt.Client
	brokerURL string
	session   uint64

	connected bool
	connMu    sync.RWMutex

	onConnect    func()
	onDisconnect func(err error)
	onMessage    func(topic string, payload []byte)
	callbackMu   sync.RWMutex

	logger Logger
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// New creates an idle Client. Call Start to open a session.
// An empty cfg.ClientID is replaced with "blescan-" and a random suffix.
//
// Parameters:
//   - cfg: MQTT configuration from config.yaml
//   - logger: Optional logger; nil discards output
//
// Returns:
//   - *Client: Client without a session
func New(cfg config.MQTTConfig, logger Logger) *Client {
	if logger == nil {
		logger = noopLogger{}
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "blescan-" + uuid.NewString()[:8]
	}
	return &Client{
		cfg:      cfg,
		clientID: clientID,
		logger:   logger,
	}
}

// ClientID returns the MQTT client identifier used for every session.
func (c *Client) ClientID() string {
	return c.clientID
}

// Start opens a session to uri ("mqtt://host[:port]") without waiting for the
// broker. A session that is already running is stopped first. Connection
// outcomes arrive through the OnConnect and OnDisconnect callbacks; failed
// connects are retried by paho in the background.
//
// Parameters:
//   - uri: Broker URI from the provisioned record (mqtt:// or mqtts://)
//
// Returns:
//   - error: ErrInvalidBrokerURI if uri cannot be parsed
func (c *Client) Start(uri string) error {
	brokerURL, err := ParseBrokerURI(uri)
	if err != nil {
		return err
	}

	c.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.session++
	session := c.session

	opts := buildClientOptions(c.cfg, brokerURL, c.clientID)
	if c.cfg.LWT {
		configureLWT(opts, c.clientID)
	}
	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.handleConnect(session)
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleDisconnect(session, err)
	})
	opts.SetDefaultPublishHandler(func(_ pahomqtt.Client, msg pahomqtt.Message) {
		c.handleMessage(session, msg)
	})

	c.client = pahomqtt.NewClient(opts)
	c.brokerURL = brokerURL
	c.client.Connect()

	return nil
}

// Stop ends the current session, if any. It does not invoke OnDisconnect.
func (c *Client) Stop() {
	c.mu.Lock()
	client := c.client
	c.client = nil
	c.session++
	c.mu.Unlock()

	c.setConnected(false)

	if client == nil {
		return
	}

	if c.cfg.LWT && client.IsConnectionOpen() {
		token := client.Publish(Topics{}.Status(c.clientID), 1, true, buildStatusPayload(c.clientID, "offline"))
		token.WaitTimeout(defaultPublishTimeout)
	}
	client.Disconnect(defaultDisconnectQuiesce)
}

// Close stops the session. It exists so the client fits io.Closer-style shutdown chains.
func (c *Client) Close() error {
	c.Stop()
	return nil
}

// BrokerURL returns the paho broker URL of the current session, or "".
func (c *Client) BrokerURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return ""
	}
	return c.brokerURL
}

// current returns the paho client when session is still the live one.
func (c *Client) current(session uint64) (pahomqtt.Client, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if session != c.session || c.client == nil {
		return nil, false
	}
	return c.client, true
}

func (c *Client) handleConnect(session uint64) {
	client, ok := c.current(session)
	if !ok {
		return
	}
	c.setConnected(true)

	if c.cfg.LWT {
		client.Publish(Topics{}.Status(c.clientID), 1, true, buildStatusPayload(c.clientID, "online"))
	}

	c.callbackMu.RLock()
	callback := c.onConnect
	c.callbackMu.RUnlock()
	if callback != nil {
		callback()
	}
}

func (c *Client) handleDisconnect(session uint64, err error) {
	if _, ok := c.current(session); !ok {
		return
	}
	c.setConnected(false)

	c.callbackMu.RLock()
	callback := c.onDisconnect
	c.callbackMu.RUnlock()
	if callback != nil {
		callback(err)
	}
}

func (c *Client) handleMessage(session uint64, msg pahomqtt.Message) {
	if _, ok := c.current(session); !ok {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("MQTT handler panic recovered",
				"topic", msg.Topic(),
				"panic", r,
			)
		}
	}()

	c.callbackMu.RLock()
	callback := c.onMessage
	c.callbackMu.RUnlock()
	if callback != nil {
		callback(msg.Topic(), msg.Payload())
	}
}

func (c *Client) setConnected(v bool) {
	c.connMu.Lock()
	c.connected = v
	c.connMu.Unlock()
}

// HealthCheck reports ErrNotConnected unless a session is up.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (c *Client) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check: %w", ctx.Err())
	default:
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// IsConnected returns the last known connection state of the live session.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	connected := c.connected
	c.connMu.RUnlock()
	if !connected {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client != nil && c.client.IsConnectionOpen()
}

// SetOnConnect sets a callback invoked on every connect and reconnect.
func (c *Client) SetOnConnect(callback func()) {
	c.callbackMu.Lock()
	c.onConnect = callback
	c.callbackMu.Unlock()
}

// SetOnDisconnect sets a callback invoked when the connection is lost.
func (c *Client) SetOnDisconnect(callback func(err error)) {
	c.callbackMu.Lock()
	c.onDisconnect = callback
	c.callbackMu.Unlock()
}

// SetOnMessage sets the callback for messages on every subscribed topic.
func (c *Client) SetOnMessage(callback func(topic string, payload []byte)) {
	c.callbackMu.Lock()
	c.onMessage = callback
	c.callbackMu.Unlock()
}
