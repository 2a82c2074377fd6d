package process

import (
	"context"
	"errors"
	"os/exec"
	"sync"
	"testing"
	"time"
)

func requireShell(t *testing.T) string {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return sh
}

func TestNewManager_Defaults(t *testing.T) {
	m := NewManager(Config{Name: "test-proc", Binary: "/usr/bin/test"})

	if m.config.GracefulTimeout != 5*time.Second {
		t.Errorf("GracefulTimeout = %v, want 5s", m.config.GracefulTimeout)
	}
	if m.Status() != StatusStopped {
		t.Errorf("Status() = %v, want %v", m.Status(), StatusStopped)
	}
	if m.IsRunning() {
		t.Error("IsRunning() = true before Start")
	}
	if m.LastError() != nil {
		t.Errorf("LastError() = %v, want nil", m.LastError())
	}
}

func TestManager_StopWhenNotRunning(t *testing.T) {
	m := NewManager(Config{Name: "idle", Binary: "/bin/true"})
	if err := m.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestManager_StartWithInvalidBinary(t *testing.T) {
	m := NewManager(Config{Name: "missing", Binary: "/nonexistent/binary"})

	if err := m.Start(context.Background()); err == nil {
		t.Fatal("Start() expected error for missing binary")
	}
	if m.Status() != StatusExited {
		t.Errorf("Status() = %v, want %v", m.Status(), StatusExited)
	}
	if m.LastError() == nil {
		t.Error("LastError() = nil after failed start")
	}
}

func TestManager_OutputLinesAndExit(t *testing.T) {
	sh := requireShell(t)

	var mu sync.Mutex
	var lines []string
	exited := make(chan bool, 1)

	m := NewManager(Config{
		Name:   "echo",
		Binary: sh,
		Args:   []string{"-c", "echo 'wlan0: CTRL-EVENT-CONNECTED - Connection to aa:bb completed'; echo oops >&2; exit 3"},
		OnOutput: func(stream, line string) {
			mu.Lock()
			lines = append(lines, stream+":"+line)
			mu.Unlock()
		},
		OnExit: func(err error, requested bool) {
			exited <- requested
		},
	})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case requested := <-exited:
		if requested {
			t.Error("OnExit requested = true for a process that exited by itself")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for exit")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(lines) != 2 {
		t.Fatalf("captured %d lines, want 2: %v", len(lines), lines)
	}
	want := map[string]bool{
		"stdout:wlan0: CTRL-EVENT-CONNECTED - Connection to aa:bb completed": true,
		"stderr:oops": true,
	}
	for _, l := range lines {
		if !want[l] {
			t.Errorf("unexpected line %q", l)
		}
	}

	var exitErr *exec.ExitError
	if !errors.As(m.LastError(), &exitErr) || exitErr.ExitCode() != 3 {
		t.Errorf("LastError() = %v, want exit status 3", m.LastError())
	}
	if m.Status() != StatusExited {
		t.Errorf("Status() = %v, want %v", m.Status(), StatusExited)
	}
}

func TestManager_StartAndStop(t *testing.T) {
	sh := requireShell(t)

	exited := make(chan bool, 1)
	m := NewManager(Config{
		Name:            "sleeper",
		Binary:          sh,
		Args:            []string{"-c", "sleep 30"},
		GracefulTimeout: 2 * time.Second,
		OnExit:          func(err error, requested bool) { exited <- requested },
	})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !m.IsRunning() {
		t.Fatal("IsRunning() = false after Start")
	}
	if stats := m.Stats(); stats.PID == 0 || stats.Status != StatusRunning {
		t.Errorf("Stats() = %+v, want running with pid", stats)
	}

	if err := m.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start() error = %v, want ErrAlreadyRunning", err)
	}

	if err := m.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !<-exited {
		t.Error("OnExit requested = false after Stop")
	}
	if m.Status() != StatusStopped {
		t.Errorf("Status() = %v, want %v", m.Status(), StatusStopped)
	}

	// The manager can run the process again.
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("restart Start() error = %v", err)
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	<-exited
}
