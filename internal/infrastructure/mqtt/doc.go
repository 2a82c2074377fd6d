// Package mqtt is the node's uplink to the relay broker, built on
// eclipse/paho.mqtt.golang.
//
// The session is started with a provisioned URI and runs in the background:
// Start, Publish and Subscribe never wait for the broker, and connection
// changes are reported through callbacks. Publish returns the packet
// identifier assigned by paho.
//
// Usage:
//
//	client := mqtt.New(cfg.MQTT, logger)
//	client.SetOnConnect(func() { ... })
//	if err := client.Start("mqtt://10.0.0.5"); err != nil {
//	    return err
//	}
//	defer client.Stop()
package mqtt
