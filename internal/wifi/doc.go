// Package wifi attaches the node to a wireless network by supervising
// wpa_supplicant.
//
// Each Attach writes a single-network supplicant configuration and starts a
// fresh supplicant. Its event lines are turned into at most one success and
// at most one loss per attempt; a supplicant that exits on its own counts as
// a loss. The caller owns the retry policy and simply calls Attach again.
package wifi
