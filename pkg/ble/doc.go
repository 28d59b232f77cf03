// Package ble abstracts the bike's BLE transport.
//
// The protocol engine only needs a bidirectional byte-frame channel: the
// bike exposes a single GATT characteristic that is both written (commands)
// and subscribed (notifications). The Link interface captures exactly
// that surface; the engine never touches discovery, pairing or MTU
// concerns.
//
// Two implementations live here: a real connector backed by
// tinygo.org/x/bluetooth, and an in-memory Pipe used by tests and the
// bike simulator.
package ble
