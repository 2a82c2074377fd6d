// Package gpio reads the node's mode toggle button through the Linux GPIO
// character device (github.com/warthog618/go-gpiocdev).
//
// The button is wired between the input line and ground with the internal
// pull-up enabled, so it reads active-low. One actuation (press followed by
// release) produces exactly one toggle callback; edges closer together than
// the debounce period are discarded.
package gpio
