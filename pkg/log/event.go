package log

import (
	"time"
)

// MaxFrameDataSize is the maximum frame data size to include in events.
// Larger frames are truncated to avoid excessive memory usage.
const MaxFrameDataSize = 512

// Event represents a protocol log event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred.
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID uniquely identifies the session (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// BikeAddress is the peer address, when known.
	BikeAddress string `cbor:"5,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"6,keyasint,omitempty"`
	PhaseChange *PhaseChangeEvent `cbor:"7,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"8,keyasint,omitempty"`
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates a frame received from the bike.
	DirectionIn Direction = 0
	// DirectionOut indicates a frame sent to the bike.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryFrame indicates a raw frame on the link.
	CategoryFrame Category = 0
	// CategoryPhase indicates a handshake phase change.
	CategoryPhase Category = 1
	// CategoryError indicates an error event.
	CategoryError Category = 2
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryFrame:
		return "FRAME"
	case CategoryPhase:
		return "PHASE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures a raw frame.
type FrameEvent struct {
	// Size is the full frame size in bytes.
	Size int `cbor:"1,keyasint"`

	// Data is the frame bytes, truncated at MaxFrameDataSize.
	Data []byte `cbor:"2,keyasint"`

	// Truncated indicates Data was capped.
	Truncated bool `cbor:"3,keyasint,omitempty"`

	// Label names the frame when the sender knows what it is
	// (echo, certificate, response, command name).
	Label string `cbor:"4,keyasint,omitempty"`
}

// PhaseChangeEvent captures a handshake phase transition.
type PhaseChangeEvent struct {
	OldPhase string `cbor:"1,keyasint"`
	NewPhase string `cbor:"2,keyasint"`

	// Reason is set for transitions into the failed phase.
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures an error at any layer.
type ErrorEventData struct {
	Message string `cbor:"1,keyasint"`
	Context string `cbor:"2,keyasint,omitempty"`
}

// NewFrameEvent builds a frame event, truncating data as needed.
func NewFrameEvent(sessionID string, direction Direction, data []byte, label string) Event {
	frameData := data
	truncated := false
	if len(data) > MaxFrameDataSize {
		frameData = data[:MaxFrameDataSize]
		truncated = true
	}

	return Event{
		Timestamp: time.Now(),
		SessionID: sessionID,
		Direction: direction,
		Category:  CategoryFrame,
		Frame: &FrameEvent{
			Size:      len(data),
			Data:      frameData,
			Truncated: truncated,
			Label:     label,
		},
	}
}

// NewPhaseChangeEvent builds a phase transition event.
func NewPhaseChangeEvent(sessionID, oldPhase, newPhase, reason string) Event {
	return Event{
		Timestamp: time.Now(),
		SessionID: sessionID,
		Category:  CategoryPhase,
		PhaseChange: &PhaseChangeEvent{
			OldPhase: oldPhase,
			NewPhase: newPhase,
			Reason:   reason,
		},
	}
}

// NewErrorEvent builds an error event.
func NewErrorEvent(sessionID string, err error, context string) Event {
	return Event{
		Timestamp: time.Now(),
		SessionID: sessionID,
		Category:  CategoryError,
		Error: &ErrorEventData{
			Message: err.Error(),
			Context: context,
		},
	}
}
