// Package process supervises a single child process.
//
// The node uses it to run wpa_supplicant: every output line is handed to a
// callback so the caller can react to supplicant events, and the exit is
// reported once. Restarting is left to the caller.
//
// Example usage:
//
//	mgr := process.NewManager(process.Config{
//	    Name:     "wpa_supplicant",
//	    Binary:   "/usr/sbin/wpa_supplicant",
//	    Args:     []string{"-i", "wlan0", "-c", "/run/blescan/wpa.conf"},
//	    OnOutput: func(stream, line string) { ... },
//	    OnExit:   func(err error, requested bool) { ... },
//	})
//	if err := mgr.Start(ctx); err != nil {
//	    return err
//	}
//	defer mgr.Stop()
package process
