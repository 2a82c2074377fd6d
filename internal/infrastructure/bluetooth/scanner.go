package bluetooth

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"tinygo.org/x/bluetooth"

	"github.com/nerrad567/blescan-node/internal/infrastructure/config"
)

// scanRetryDelay is the pause before a continuous scan that failed is restarted.
const scanRetryDelay = 2 * time.Second

const stopPollInterval = 100 * time.Millisecond

// Sighting is one advertisement from a named nearby device.
type Sighting struct {
	Name    string
	Address string
	RSSI    int
}

// scanRadio is the part of *bluetooth.Adapter the scanner drives.
type scanRadio interface {
	Scan(callback func(*bluetooth.Adapter, bluetooth.ScanResult)) error
	StopScan() error
}

// Scanner reports nearby devices to a single callback.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - The callback runs on the radio's scan goroutine and must not block.
type Scanner struct {
	radio  scanRadio
	cfg    config.BluetoothConfig
	logger Logger

	cbMu    sync.RWMutex
	onFound func(Sighting)

	mu        sync.Mutex
	running   bool
	scheduler gocron.Scheduler
	done      chan struct{}
}

// NewScanner creates a stopped Scanner on an enabled adapter.
func NewScanner(adapter *bluetooth.Adapter, cfg config.BluetoothConfig, logger Logger) *Scanner {
	return newScanner(adapter, cfg, logger)
}

func newScanner(radio scanRadio, cfg config.BluetoothConfig, logger Logger) *Scanner {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Scanner{radio: radio, cfg: cfg, logger: logger}
}

// SetOnFound registers the callback for named devices.
func (s *Scanner) SetOnFound(callback func(Sighting)) {
	s.cbMu.Lock()
	s.onFound = callback
	s.cbMu.Unlock()
}

// Start begins scanning in the background.
func (s *Scanner) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}

	if s.cfg.ScanInterval <= 0 {
		s.done = make(chan struct{})
		s.running = true
		go s.scanContinuously(s.done)
		s.logger.Info("ble scan started", "mode", "continuous")
		return nil
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("creating scan scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(s.cfg.ScanInterval),
		gocron.NewTask(s.scanWindow),
		gocron.WithName("ble-scan-window"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("scheduling scan window: %w", err)
	}

	s.scheduler = sched
	s.running = true
	sched.Start()
	s.logger.Info("ble scan started", "mode", "windowed",
		"interval", s.cfg.ScanInterval, "window", s.cfg.ScanWindow)
	return nil
}

// Stop ends scanning and waits for the scan goroutine or job to return.
func (s *Scanner) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	sched := s.scheduler
	done := s.done
	s.scheduler = nil
	s.done = nil
	s.mu.Unlock()

	s.stopRadio()

	if sched != nil {
		if err := sched.Shutdown(); err != nil {
			return fmt.Errorf("stopping scan scheduler: %w", err)
		}
	}
	if done != nil {
		// The scan goroutine may enter Scan after the first StopScan.
		ticker := time.NewTicker(stopPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return nil
			case <-ticker.C:
				s.stopRadio()
			}
		}
	}
	return nil
}

func (s *Scanner) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scanner) scanContinuously(done chan struct{}) {
	defer close(done)
	for s.isRunning() {
		if err := s.radio.Scan(s.handleResult); err != nil {
			s.logger.Warn("ble scan failed", "error", err)
			time.Sleep(scanRetryDelay)
		}
	}
}

// scanWindow scans for cfg.ScanWindow, then returns until the next interval.
func (s *Scanner) scanWindow() {
	if !s.isRunning() {
		return
	}
	timer := time.AfterFunc(s.cfg.ScanWindow, s.stopRadio)
	defer timer.Stop()

	if err := s.radio.Scan(s.handleResult); err != nil {
		s.logger.Warn("ble scan window failed", "error", err)
	}
}

func (s *Scanner) stopRadio() {
	if err := s.radio.StopScan(); err != nil {
		s.logger.Debug("ble stop scan", "error", err)
	}
}

func (s *Scanner) handleResult(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
	s.report(result.LocalName(), result.Address.String(), result.RSSI)
}

// report forwards a sighting when the device advertises a complete local name.
func (s *Scanner) report(name, address string, rssi int16) {
	sighting, ok := newSighting(name, address, rssi)
	if !ok {
		return
	}

	s.cbMu.RLock()
	fn := s.onFound
	s.cbMu.RUnlock()
	if fn != nil {
		fn(sighting)
	}
}

func newSighting(name, address string, rssi int16) (Sighting, bool) {
	if name == "" {
		return Sighting{}, false
	}
	return Sighting{
		Name:    name,
		Address: strings.ToLower(address),
		RSSI:    int(rssi),
	}, true
}
