package coordinator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/blescan-node/internal/settings"
)

const (
	// DefaultQueueSize is the event queue capacity when none is configured.
	DefaultQueueSize = 64

	// DefaultRetryDelay is the pause before re-issuing an attach whose
	// request failed outright.
	DefaultRetryDelay = time.Second
)

// Display lines.
const (
	lineTop    = 0
	lineBottom = 1
)

// Deps are the collaborators the coordinator drives.
type Deps struct {
	Store      settings.Store
	Attacher   Attacher
	Uplink     Uplink
	Advertiser Advertiser
	Display    Display      // optional
	Sightings  SightingSink // optional
	Metrics    *Metrics     // optional
	Logger     Logger       // optional
}

// Options tune the event loop.
type Options struct {
	// QueueSize is the event queue capacity. Discovery events are dropped
	// once the queue is half full so that the remaining capacity stays free
	// for producers that must not lose events.
	QueueSize int

	// RetryDelay is the pause before re-issuing an attach whose request
	// returned an error.
	RetryDelay time.Duration
}

// Coordinator serialises every producer's events onto one goroutine.
//
// Thread Safety:
//   - Post, TryPost, Snapshot and WaitInitialAttach are safe for concurrent use.
//   - Run must be called exactly once.
//   - Collaborators are only called from the Run goroutine.
type Coordinator struct {
	store      settings.Store
	attacher   Attacher
	uplinkc    Uplink
	advertiser Advertiser
	display    Display
	sightings  SightingSink
	metrics    *Metrics
	logger     Logger
	retryDelay time.Duration

	events chan Event
	done   chan struct{}

	// Owned by the Run goroutine.
	mode    Mode
	state   ConnState
	attempt uint32
	uplink  bool
	creds   settings.Record
	record  settings.Record
	gen     uint64
	runCtx  context.Context //nolint:containedctx // Used by retry timers scheduled from the loop

	snapMu sync.RWMutex
	snap   Snapshot

	onChangeMu sync.RWMutex
	onChange   func(Snapshot)

	initialOnce      sync.Once
	initialDone      chan struct{}
	initialConnected atomic.Bool
}

// New creates a Coordinator in Normal mode with connectivity Idle.
func New(deps Deps, opts Options) *Coordinator {
	if deps.Logger == nil {
		deps.Logger = noopLogger{}
	}
	if deps.Display == nil {
		deps.Display = noopDisplay{}
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}

	c := &Coordinator{
		store:       deps.Store,
		attacher:    deps.Attacher,
		uplinkc:     deps.Uplink,
		advertiser:  deps.Advertiser,
		display:     deps.Display,
		sightings:   deps.Sightings,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		retryDelay:  opts.RetryDelay,
		events:      make(chan Event, opts.QueueSize),
		done:        make(chan struct{}),
		mode:        ModeNormal,
		state:       StateIdle,
		initialDone: make(chan struct{}),
	}
	c.snap = c.buildSnapshot()
	return c
}

// SetOnChange registers a callback invoked from the Run goroutine whenever
// the snapshot changes. It must not block.
func (c *Coordinator) SetOnChange(callback func(Snapshot)) {
	c.onChangeMu.Lock()
	c.onChange = callback
	c.onChangeMu.Unlock()
}

// Post enqueues ev, blocking while the queue is full.
func (c *Coordinator) Post(ctx context.Context, ev Event) error {
	select {
	case <-c.done:
		return ErrStopped
	default:
	}

	select {
	case c.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}
}

// TryPost enqueues ev without blocking and reports whether it was accepted.
// Discovery events are refused once the queue is half full, leaving the
// rest for lifecycle and control events.
func (c *Coordinator) TryPost(ev Event) bool {
	if _, ok := ev.(DeviceDiscovered); ok && len(c.events) >= discoveryLimit(cap(c.events)) {
		c.dropped(ev)
		return false
	}
	select {
	case c.events <- ev:
		return true
	default:
		c.dropped(ev)
		return false
	}
}

// discoveryLimit is the queue depth at which discovery events are refused.
func discoveryLimit(capacity int) int {
	return max(1, capacity/2)
}

func (c *Coordinator) dropped(ev Event) {
	c.metrics.eventDropped(ev.eventName())
	if _, ok := ev.(DeviceDiscovered); ok {
		c.metrics.telemetry(telemetryDroppedQueue)
		c.logger.Debug("event dropped, queue busy", "event", ev.eventName())
		return
	}
	c.logger.Warn("event dropped, queue full", "event", ev.eventName())
}

// Snapshot returns the state as of the last processed event.
func (c *Coordinator) Snapshot() Snapshot {
	c.snapMu.RLock()
	defer c.snapMu.RUnlock()
	return c.snap
}

// WaitInitialAttach blocks until the first attach outcome after boot and
// reports whether it was a success. A zero timeout waits indefinitely; on
// timeout ErrInitialAttachTimeout is returned and the lifecycle keeps
// retrying in the background.
func (c *Coordinator) WaitInitialAttach(ctx context.Context, timeout time.Duration) (bool, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-c.initialDone:
		return c.initialConnected.Load(), nil
	case <-expired:
		return false, ErrInitialAttachTimeout
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (c *Coordinator) resolveInitial(connected bool) {
	c.initialOnce.Do(func() {
		c.initialConnected.Store(connected)
		close(c.initialDone)
	})
}

// Run boots the node and processes events until ctx is cancelled. On return
// the attach is stopped and the uplink closed.
func (c *Coordinator) Run(ctx context.Context) error {
	defer close(c.done)
	c.runCtx = ctx

	c.boot(ctx)

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return nil
		case ev := <-c.events:
			c.dispatch(ctx, ev)
		}
	}
}

// boot shows the splash line, loads the record and starts the attach and
// the uplink in Normal mode.
func (c *Coordinator) boot(ctx context.Context) {
	c.display.Clear()
	c.display.ShowLine(lineTop, "Initializing")

	c.record = settings.Load(ctx, c.store, c.logger)
	c.logger.Info("configuration loaded",
		"board_name", c.record.BoardName,
		"broker", c.record.BrokerURI,
		"has_credentials", c.record.HasCredentials(),
	)

	c.startConnect(c.record)
	c.startUplink()
	c.publishState()
}

func (c *Coordinator) shutdown() {
	c.stopLifecycle()
	c.uplinkc.Stop()
	c.uplink = false
	c.publishState()
	c.logger.Info("coordinator stopped")
}

func (c *Coordinator) dispatch(ctx context.Context, ev Event) {
	c.metrics.event(ev.eventName())

	switch e := ev.(type) {
	case ModeToggleRequested:
		c.toggleMode(ctx)
	case AttachSucceeded:
		c.onAttachSucceeded()
	case AttachLost:
		c.onAttachLost()
	case retryAttach:
		if e.gen == c.gen && c.state == StateDisconnected {
			c.onAttachLost()
		}
	case ProvisioningWrite:
		c.onProvisioningWrite(ctx, e)
	case DeviceDiscovered:
		c.onDeviceDiscovered(ctx, e)
	case UplinkConnected:
		c.onUplinkConnected(ctx)
	case UplinkDisconnected:
		c.onUplinkDisconnected()
	case UplinkMessage:
		c.onUplinkMessage(ctx, e)
	}

	c.publishState()
}

func (c *Coordinator) buildSnapshot() Snapshot {
	return Snapshot{
		Mode:            c.mode,
		ModeName:        c.mode.String(),
		State:           c.state,
		StateName:       c.state.String(),
		Attempt:         c.attempt,
		UplinkConnected: c.uplink,
		BoardName:       c.record.BoardName,
		BrokerURI:       c.record.BrokerURI,
		SSID:            c.record.SSID,
	}
}

// publishState copies loop state into the snapshot and notifies on change.
func (c *Coordinator) publishState() {
	snap := c.buildSnapshot()

	c.snapMu.Lock()
	changed := snap != c.snap
	c.snap = snap
	c.snapMu.Unlock()

	c.metrics.state(snap)

	if !changed {
		return
	}
	c.onChangeMu.RLock()
	fn := c.onChange
	c.onChangeMu.RUnlock()
	if fn != nil {
		fn(snap)
	}
}
