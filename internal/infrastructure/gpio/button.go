package gpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/nerrad567/blescan-node/internal/infrastructure/config"
)

// Logger defines the logging interface for the button.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}

// Button turns edges on one input line into toggle requests.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - The toggle callback runs on the gpiocdev event goroutine.
type Button struct {
	cfg    config.ButtonConfig
	logger Logger

	cbMu     sync.RWMutex
	onToggle func()

	mu      sync.Mutex
	line    *gpiocdev.Line
	tracker edgeTracker
}

// NewButton creates an unopened Button.
func NewButton(cfg config.ButtonConfig, logger Logger) *Button {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Button{
		cfg:     cfg,
		logger:  logger,
		tracker: edgeTracker{debounce: cfg.Debounce},
	}
}

// SetOnToggle registers the callback fired once per press and release.
func (b *Button) SetOnToggle(callback func()) {
	b.cbMu.Lock()
	b.onToggle = callback
	b.cbMu.Unlock()
}

// Start requests the line with edge detection.
func (b *Button) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.line != nil {
		return nil
	}

	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(b.handleEvent),
		gpiocdev.WithConsumer("blescan-mode"),
	}
	if b.cfg.ActiveLow {
		opts = append(opts, gpiocdev.WithPullUp)
	} else {
		opts = append(opts, gpiocdev.WithPullDown)
	}

	line, err := gpiocdev.RequestLine(b.cfg.Chip, b.cfg.Line, opts...)
	if err != nil {
		return fmt.Errorf("requesting %s line %d: %w", b.cfg.Chip, b.cfg.Line, err)
	}
	b.line = line
	b.logger.Info("mode button ready", "chip", b.cfg.Chip, "line", b.cfg.Line, "active_low", b.cfg.ActiveLow)
	return nil
}

// Close releases the line.
func (b *Button) Close() error {
	b.mu.Lock()
	line := b.line
	b.line = nil
	b.mu.Unlock()

	if line == nil {
		return nil
	}
	return line.Close()
}

func (b *Button) handleEvent(evt gpiocdev.LineEvent) {
	pressed := pressedFromEdge(evt.Type, b.cfg.ActiveLow)

	b.mu.Lock()
	toggle := b.tracker.observe(pressed, evt.Timestamp)
	b.mu.Unlock()

	b.logger.Debug("button edge", "pressed", pressed, "toggle", toggle)
	if !toggle {
		return
	}

	b.cbMu.RLock()
	fn := b.onToggle
	b.cbMu.RUnlock()
	if fn != nil {
		fn()
	}
}

// pressedFromEdge reports whether an edge leaves the button pressed.
func pressedFromEdge(edge gpiocdev.LineEventType, activeLow bool) bool {
	if activeLow {
		return edge == gpiocdev.LineEventFallingEdge
	}
	return edge == gpiocdev.LineEventRisingEdge
}

// edgeTracker debounces edges and detects press-then-release.
type edgeTracker struct {
	debounce time.Duration
	pressed  bool
	last     time.Duration
	seen     bool
}

// observe records one edge at ts (the kernel event timestamp) and reports
// whether it completes an actuation.
func (t *edgeTracker) observe(pressed bool, ts time.Duration) bool {
	if pressed == t.pressed {
		return false
	}
	if t.seen && ts-t.last < t.debounce {
		return false
	}
	t.seen = true
	t.last = ts
	t.pressed = pressed
	return !pressed
}
