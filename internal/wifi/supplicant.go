package wifi

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	minPassphrase = 8
	maxPassphrase = 63
	rawPSKLength  = 64
)

// renderConfig builds a wpa_supplicant.conf for one network. The SSID is
// hex-encoded so any byte sequence is accepted; an empty secret selects an
// open network.
func renderConfig(ssid, secret string) (string, error) {
	if ssid == "" {
		return "", ErrEmptySSID
	}

	var b strings.Builder
	b.WriteString("ap_scan=1\n")
	b.WriteString("network={\n")
	fmt.Fprintf(&b, "\tssid=%s\n", hex.EncodeToString([]byte(ssid)))
	b.WriteString("\tscan_ssid=1\n")

	switch {
	case secret == "":
		b.WriteString("\tkey_mgmt=NONE\n")
	case len(secret) == rawPSKLength && isHex(secret):
		fmt.Fprintf(&b, "\tpsk=%s\n", strings.ToLower(secret))
	case len(secret) >= minPassphrase && len(secret) <= maxPassphrase && !strings.ContainsAny(secret, "\"\n"):
		fmt.Fprintf(&b, "\tpsk=\"%s\"\n", secret)
	default:
		return "", ErrInvalidSecret
	}

	b.WriteString("}\n")
	return b.String(), nil
}

func isHex(s string) bool {
	_, err := hex.DecodeString(s)
	return err == nil
}

// writeConfig writes the configuration with owner-only permissions.
func writeConfig(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating supplicant config directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o600); err != nil {
		return fmt.Errorf("writing supplicant config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("installing supplicant config: %w", err)
	}
	return nil
}
