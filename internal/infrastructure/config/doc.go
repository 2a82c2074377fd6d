// Package config handles loading and validating blescan node configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// The provisioned record (network name, secret, relay address, device name)
// is not part of this file. It lives in the settings store and is written
// over Bluetooth at runtime.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.WiFi.Interface)
package config
