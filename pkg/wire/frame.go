package wire

import (
	"errors"
	"fmt"
)

// Frame layout constants.
const (
	// FrameHeaderSize is the fixed size of the frame prefix
	// (header, reserved, commandGroup, subtype).
	FrameHeaderSize = 4

	// ChallengeSize is the size of the challenge nonce issued by the bike.
	ChallengeSize = 16

	// SignatureSize is the size of an Ed25519 signature on the wire,
	// both the CA signature inside a certificate and a challenge response.
	SignatureSize = 64
)

// Session header bytes. The bike's first frame carries one of these and
// every subsequent frame in the session must use the same value.
const (
	HeaderS5Primary   byte = 0x80
	HeaderS5Common    byte = 0x81
	HeaderS5Secondary byte = 0x82
)

// IsValidHeader reports whether b is a known session header byte.
func IsValidHeader(b byte) bool {
	return b == HeaderS5Primary || b == HeaderS5Common || b == HeaderS5Secondary
}

// Message signatures: the (commandGroup, subtype) pairs the protocol uses.
const (
	GroupStatus        byte = 0x0D
	SubtypeStatus      byte = 0x05
	GroupChallenge     byte = 0x10
	SubtypeChallenge   byte = 0x04
	GroupResponse      byte = 0x40
	SubtypeResponse    byte = 0x04
	GroupCertificate   byte = 0xA9
	SubtypeCertificate byte = 0x03
	GroupCommand       byte = 0x03
	GroupCommandAck    byte = 0x07
	SubtypeCommandAck  byte = 0x01
	GroupConnParams    byte = 0x1F
	SubtypeConnParams  byte = 0x07
)

// Codec errors.
var (
	// ErrTooShort indicates the input is shorter than the 4-byte frame prefix.
	ErrTooShort = errors.New("frame too short")

	// ErrMalformedPayload indicates a payload that should contain a CBOR
	// map could not be decoded.
	ErrMalformedPayload = errors.New("malformed payload")
)

// Frame is one discrete message exchanged over the link.
type Frame struct {
	// Header is the session header byte (0x80, 0x81 or 0x82).
	Header byte

	// Reserved is the second frame byte. Always 0x00 on the wire; decoded
	// frames preserve whatever was received so an echo is byte-exact.
	Reserved byte

	// CommandGroup selects the logical message category.
	CommandGroup byte

	// Subtype disambiguates within a command group.
	Subtype byte

	// Payload is the variable-length remainder of the frame.
	Payload []byte
}

// MessageType classifies a frame by its (commandGroup, subtype) signature.
type MessageType uint8

const (
	// MessageUnknown is a frame with an unrecognized signature.
	MessageUnknown MessageType = iota

	// MessageStatus is a status report ({enc, auth} CBOR map).
	MessageStatus

	// MessageChallenge carries a 16-byte nonce to be signed.
	MessageChallenge

	// MessageResponse carries the 64-byte challenge signature.
	MessageResponse

	// MessageCertificate carries the client certificate submission.
	MessageCertificate

	// MessageCommand is an outbound control command (group 0x03).
	MessageCommand

	// MessageCommandAck acknowledges a control command.
	MessageCommandAck

	// MessageConnParams carries connection parameters (CBOR map).
	MessageConnParams
)

// String returns the message type name.
func (t MessageType) String() string {
	switch t {
	case MessageStatus:
		return "STATUS"
	case MessageChallenge:
		return "CHALLENGE"
	case MessageResponse:
		return "RESPONSE"
	case MessageCertificate:
		return "CERTIFICATE"
	case MessageCommand:
		return "COMMAND"
	case MessageCommandAck:
		return "COMMAND_ACK"
	case MessageConnParams:
		return "CONN_PARAMS"
	default:
		return "UNKNOWN"
	}
}

// Type returns the frame's message type based on its signature.
func (f Frame) Type() MessageType {
	switch {
	case f.CommandGroup == GroupStatus && f.Subtype == SubtypeStatus:
		return MessageStatus
	case f.CommandGroup == GroupChallenge && f.Subtype == SubtypeChallenge:
		return MessageChallenge
	case f.CommandGroup == GroupResponse && f.Subtype == SubtypeResponse:
		return MessageResponse
	case f.CommandGroup == GroupCertificate && f.Subtype == SubtypeCertificate:
		return MessageCertificate
	case f.CommandGroup == GroupCommand:
		return MessageCommand
	case f.CommandGroup == GroupCommandAck && f.Subtype == SubtypeCommandAck:
		return MessageCommandAck
	case f.CommandGroup == GroupConnParams && f.Subtype == SubtypeConnParams:
		return MessageConnParams
	default:
		return MessageUnknown
	}
}

// Encode serializes the frame. The output is exactly
// FrameHeaderSize+len(payload) bytes.
func (f Frame) Encode() []byte {
	out := make([]byte, FrameHeaderSize+len(f.Payload))
	out[0] = f.Header
	out[1] = f.Reserved
	out[2] = f.CommandGroup
	out[3] = f.Subtype
	copy(out[FrameHeaderSize:], f.Payload)
	return out
}

// Encode builds a frame from its four fields. The reserved byte is always
// written as 0x00. The output is exactly FrameHeaderSize+len(payload) bytes.
func Encode(header, commandGroup, subtype byte, payload []byte) []byte {
	return Frame{
		Header:       header,
		CommandGroup: commandGroup,
		Subtype:      subtype,
		Payload:      payload,
	}.Encode()
}

// Decode parses raw bytes into a Frame. It fails with ErrTooShort when
// fewer than FrameHeaderSize bytes are present and performs no semantic
// validation beyond that. The payload is copied, so the caller may reuse
// the input buffer.
func Decode(data []byte) (Frame, error) {
	if len(data) < FrameHeaderSize {
		return Frame{}, fmt.Errorf("%w: %d bytes, need at least %d", ErrTooShort, len(data), FrameHeaderSize)
	}
	payload := make([]byte, len(data)-FrameHeaderSize)
	copy(payload, data[FrameHeaderSize:])
	return Frame{
		Header:       data[0],
		Reserved:     data[1],
		CommandGroup: data[2],
		Subtype:      data[3],
		Payload:      payload,
	}, nil
}
