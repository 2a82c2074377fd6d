package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// Status represents the current state of a managed process.
type Status string

const (
	StatusStopped Status = "stopped"
	StatusRunning Status = "running"
	StatusExited  Status = "exited"
)

// maxLineLength caps a single captured output line.
const maxLineLength = 64 * 1024

// ErrAlreadyRunning is returned by Start when the process is running.
var ErrAlreadyRunning = errors.New("process: already running")

// Config holds configuration for a managed subprocess.
type Config struct {
	// Name is a human-readable identifier for logging.
	Name string

	// Binary is the path to the executable.
	Binary string

	// Args are command-line arguments to pass to the binary.
	Args []string

	// Env are additional environment variables (key=value format).
	Env []string

	// GracefulTimeout is how long to wait after SIGTERM before SIGKILL.
	GracefulTimeout time.Duration

	// OnOutput receives every stdout/stderr line. It runs on the capture
	// goroutine and must not block.
	OnOutput func(stream, line string)

	// OnExit is called once when the process ends. requested is true when
	// the exit followed a call to Stop.
	OnExit func(err error, requested bool)
}

// Logger defines the logging interface for the process manager.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Manager runs one subprocess at a time and reports its output and exit.
// It does not restart the process; callers decide what an exit means.
type Manager struct {
	config Config
	logger Logger

	mu            sync.RWMutex
	cmd           *exec.Cmd
	status        Status
	lastError     error
	startTime     time.Time
	stopRequested bool
	done          chan struct{}
}

// NewManager creates a new process manager with the given configuration.
func NewManager(cfg Config) *Manager {
	if cfg.GracefulTimeout == 0 {
		cfg.GracefulTimeout = 5 * time.Second
	}
	return &Manager{
		config: cfg,
		logger: noopLogger{},
		status: StatusStopped,
	}
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	m.logger = logger
}

// Start launches the subprocess. It returns once the process has been
// spawned; OnExit reports when it ends.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status == StatusRunning {
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, m.config.Name)
	}

	cmd := exec.CommandContext(ctx, m.config.Binary, m.config.Args...) //nolint:gosec // Binary comes from node configuration
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if m.config.Env != nil {
		cmd.Env = append(os.Environ(), m.config.Env...)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("creating stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		m.lastError = err
		m.status = StatusExited
		return fmt.Errorf("starting %s: %w", m.config.Name, err)
	}

	m.cmd = cmd
	m.status = StatusRunning
	m.startTime = time.Now()
	m.stopRequested = false
	m.lastError = nil
	m.done = make(chan struct{})

	m.logger.Info("process started", "name", m.config.Name, "pid", cmd.Process.Pid)

	var capture sync.WaitGroup
	capture.Add(2)
	go m.captureOutput(&capture, "stdout", stdout)
	go m.captureOutput(&capture, "stderr", stderr)
	go m.wait(cmd, &capture, m.done)

	return nil
}

// captureOutput forwards each line of r to OnOutput.
func (m *Manager) captureOutput(wg *sync.WaitGroup, stream string, r io.Reader) {
	defer wg.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 4096), maxLineLength)
	for scanner.Scan() {
		line := scanner.Text()
		m.logger.Debug("process output", "name", m.config.Name, "stream", stream, "line", line)
		if m.config.OnOutput != nil {
			m.config.OnOutput(stream, line)
		}
	}
}

// wait reaps the process once its output has been drained.
func (m *Manager) wait(cmd *exec.Cmd, capture *sync.WaitGroup, done chan struct{}) {
	capture.Wait()
	err := cmd.Wait()

	m.mu.Lock()
	requested := m.stopRequested
	m.status = StatusExited
	if requested {
		m.status = StatusStopped
	}
	m.lastError = err
	m.mu.Unlock()

	if requested {
		m.logger.Info("process stopped as requested", "name", m.config.Name)
	} else {
		m.logger.Warn("process exited", "name", m.config.Name, "error", err)
	}

	if m.config.OnExit != nil {
		m.config.OnExit(err, requested)
	}
	close(done)
}

// Stop sends SIGTERM to the process group and escalates to SIGKILL after
// GracefulTimeout. It blocks until the process has exited.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if m.status != StatusRunning || m.cmd == nil || m.cmd.Process == nil {
		m.mu.Unlock()
		return nil
	}
	m.stopRequested = true
	pid := m.cmd.Process.Pid
	done := m.done
	m.mu.Unlock()

	m.logger.Info("stopping process", "name", m.config.Name, "pid", pid)

	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		m.logger.Warn("failed to send SIGTERM to process group", "name", m.config.Name, "error", err)
	}

	select {
	case <-done:
		return nil
	case <-time.After(m.config.GracefulTimeout):
		m.logger.Warn("graceful shutdown timeout, sending SIGKILL",
			"name", m.config.Name,
			"timeout", m.config.GracefulTimeout,
		)
	}

	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("killing process group %s: %w", m.config.Name, err)
	}
	<-done
	return nil
}

// Status returns the current status of the managed process.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// IsRunning returns true if the process is currently running.
func (m *Manager) IsRunning() bool {
	return m.Status() == StatusRunning
}

// LastError returns the error from the last exit, if any.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastError
}

// Stats returns statistics about the managed process.
type Stats struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	PID       int           `json:"pid,omitempty"`
	Uptime    time.Duration `json:"uptime,omitempty"`
	LastError string        `json:"last_error,omitempty"`
}

// Stats returns current statistics for the process.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{
		Name:   m.config.Name,
		Status: m.status,
	}
	if m.status == StatusRunning && m.cmd != nil && m.cmd.Process != nil {
		stats.PID = m.cmd.Process.Pid
		stats.Uptime = time.Since(m.startTime)
	}
	if m.lastError != nil {
		stats.LastError = m.lastError.Error()
	}
	return stats
}
