package coordinator

import "errors"

var (
	// ErrStopped is returned by Post once Run has returned.
	ErrStopped = errors.New("coordinator: stopped")

	// ErrInitialAttachTimeout is returned by WaitInitialAttach when the boot
	// timeout elapses before the first attach outcome.
	ErrInitialAttachTimeout = errors.New("coordinator: initial attach timed out")

	// ErrUnknownSlot is returned for a provisioning slot name that is not one
	// of ssid, password, broker or board_name.
	ErrUnknownSlot = errors.New("coordinator: unknown provisioning slot")
)
