package ble

import (
	"context"
	"errors"
)

// BLE identifiers of the bike's control characteristic. Frames are
// written to and notified on the same characteristic.
const (
	// ServiceUUID identifies the vehicle control service.
	ServiceUUID = "e3d80000-3416-4a54-b011-68d41fdcbfcf"

	// CharacteristicUUID identifies the frame characteristic inside the
	// control service.
	CharacteristicUUID = "e3d80001-3416-4a54-b011-68d41fdcbfcf"
)

// Link errors.
var (
	// ErrLinkClosed is returned by Send after the link has been closed
	// from either side.
	ErrLinkClosed = errors.New("link closed")

	// ErrDeviceNotFound is returned by Connect when no matching device
	// was discovered before the context expired.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrCharacteristicNotFound is returned by Connect when the device
	// does not expose the frame characteristic.
	ErrCharacteristicNotFound = errors.New("frame characteristic not found")
)

// Link is a connected bidirectional frame channel to one bike.
//
// Send writes one frame; frames notified by the bike appear on the
// Frames channel. Implementations deliver frames in arrival order and
// hand out payload copies, so a consumer may retain them.
type Link interface {
	// Send writes one frame to the bike.
	Send(frame []byte) error

	// Frames returns the inbound frame stream. The channel is never
	// closed; consumers select against their own context.
	Frames() <-chan []byte

	// Close tears the link down. Safe to call more than once.
	Close() error
}

// Connector establishes links. The identifier is transport-specific:
// a MAC address for the real BLE connector, anything for the in-memory
// variants used in tests.
type Connector interface {
	Connect(ctx context.Context, identifier string) (Link, error)
}

// ConnectorFunc adapts a function to the Connector interface.
type ConnectorFunc func(ctx context.Context, identifier string) (Link, error)

// Connect calls f.
func (f ConnectorFunc) Connect(ctx context.Context, identifier string) (Link, error) {
	return f(ctx, identifier)
}
