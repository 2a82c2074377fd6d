package wifi

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/blescan-node/internal/infrastructure/config"
	"github.com/nerrad567/blescan-node/internal/process"
)

const dhcpTimeout = 30 * time.Second

// Logger defines the logging interface for the station.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// attemptState tracks what has been reported for one Attach.
type attemptState int

const (
	attemptPending attemptState = iota
	attemptUp
	attemptDone
)

// Station attaches one wireless interface to one network at a time.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Handlers are never called while the station's lock is held.
type Station struct {
	cfg    config.WiFiConfig
	logger Logger

	handlerMu   sync.RWMutex
	onSucceeded func()
	onLost      func()

	mu      sync.Mutex
	attempt uint64
	state   attemptState
	mgr     *process.Manager
}

// NewStation creates an idle Station.
func NewStation(cfg config.WiFiConfig, logger Logger) *Station {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Station{cfg: cfg, logger: logger}
}

// SetHandlers registers the attach outcome callbacks.
func (s *Station) SetHandlers(onSucceeded, onLost func()) {
	s.handlerMu.Lock()
	s.onSucceeded = onSucceeded
	s.onLost = onLost
	s.handlerMu.Unlock()
}

// Attach tears down any previous attempt and starts a new one. It returns
// once the supplicant is running; the outcome arrives through the handlers.
func (s *Station) Attach(ssid, secret string) error {
	content, err := renderConfig(ssid, secret)
	if err != nil {
		return err
	}

	// Retire the previous attempt before stopping it so its late events are dropped.
	s.mu.Lock()
	s.attempt++
	attempt := s.attempt
	s.state = attemptDone
	s.mu.Unlock()

	if err := s.stopCurrent(); err != nil {
		s.logger.Warn("stopping previous wpa_supplicant", "error", err)
	}

	if err := writeConfig(s.cfg.ConfigPath, content); err != nil {
		return err
	}

	s.mu.Lock()
	if s.attempt != attempt {
		// Disconnect ran concurrently.
		s.mu.Unlock()
		return nil
	}
	s.state = attemptPending
	mgr := process.NewManager(process.Config{
		Name:   "wpa_supplicant",
		Binary: s.cfg.Binary,
		Args:   []string{"-i", s.cfg.Interface, "-c", s.cfg.ConfigPath},
		OnOutput: func(_, line string) {
			s.handleLine(attempt, line)
		},
		OnExit: func(err error, requested bool) {
			if !requested {
				s.logger.Warn("wpa_supplicant exited", "attempt", attempt, "error", err)
				s.reportLost(attempt)
			}
		},
	})
	mgr.SetLogger(s.logger)
	s.mgr = mgr
	s.mu.Unlock()

	s.logger.Info("attach requested", "interface", s.cfg.Interface, "ssid", ssid, "attempt", attempt)

	if err := mgr.Start(context.Background()); err != nil {
		s.mu.Lock()
		if s.attempt == attempt {
			s.state = attemptDone
			s.mgr = nil
		}
		s.mu.Unlock()
		return fmt.Errorf("starting wpa_supplicant: %w", err)
	}
	return nil
}

// Disconnect ends the current attempt. No handler fires for it afterwards.
func (s *Station) Disconnect() error {
	s.mu.Lock()
	s.attempt++
	s.state = attemptDone
	s.mu.Unlock()

	return s.stopCurrent()
}

// stopCurrent stops the running supplicant outside the lock, since its exit
// callback takes the lock.
func (s *Station) stopCurrent() error {
	s.mu.Lock()
	mgr := s.mgr
	s.mgr = nil
	s.mu.Unlock()

	if mgr == nil {
		return nil
	}
	return mgr.Stop()
}

func (s *Station) handleLine(attempt uint64, line string) {
	switch classify(line) {
	case eventAssociated:
		if strings.TrimSpace(s.cfg.DHCPCommand) == "" {
			s.reportSucceeded(attempt)
			return
		}
		go s.leaseAndReport(attempt)
	case eventLost:
		s.logger.Debug("supplicant reported loss", "attempt", attempt, "line", line)
		s.reportLost(attempt)
	case eventNone:
	}
}

// leaseAndReport runs the DHCP command after association.
func (s *Station) leaseAndReport(attempt uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), dhcpTimeout)
	defer cancel()

	fields := strings.Fields(s.cfg.DHCPCommand)
	out, err := exec.CommandContext(ctx, fields[0], fields[1:]...).CombinedOutput() //nolint:gosec // Command comes from node configuration
	if err != nil {
		s.logger.Warn("dhcp failed", "attempt", attempt, "error", err, "output", strings.TrimSpace(string(out)))
		s.reportLost(attempt)
		return
	}
	s.reportSucceeded(attempt)
}

func (s *Station) reportSucceeded(attempt uint64) {
	s.mu.Lock()
	if s.attempt != attempt || s.state != attemptPending {
		s.mu.Unlock()
		return
	}
	s.state = attemptUp
	s.mu.Unlock()

	s.handlerMu.RLock()
	fn := s.onSucceeded
	s.handlerMu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (s *Station) reportLost(attempt uint64) {
	s.mu.Lock()
	if s.attempt != attempt || s.state == attemptDone {
		s.mu.Unlock()
		return
	}
	s.state = attemptDone
	s.mu.Unlock()

	s.handlerMu.RLock()
	fn := s.onLost
	s.handlerMu.RUnlock()
	if fn != nil {
		fn()
	}
}
