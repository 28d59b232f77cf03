package cert

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Payload map keys. Single characters to keep the certificate compact.
const (
	fieldCertID    = "i"
	fieldFrameID   = "f"
	fieldSerial    = "s"
	fieldExpiry    = "e"
	fieldRole      = "r"
	fieldUserID    = "u"
	fieldPublicKey = "p"
)

// Parse errors.
var (
	// ErrCertTooShort indicates the raw certificate is shorter than the
	// 64-byte CA signature.
	ErrCertTooShort = errors.New("certificate shorter than CA signature")

	// ErrMalformedPayload indicates the certificate payload is not a
	// decodable CBOR map.
	ErrMalformedPayload = errors.New("malformed certificate payload")
)

// MissingFieldError indicates a required payload field is absent.
type MissingFieldError struct {
	Key string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("certificate payload missing field %q", e.Key)
}

// UnexpectedFieldTypeError indicates a payload field does not have its
// documented type.
type UnexpectedFieldTypeError struct {
	Key  string
	Want string
}

func (e *UnexpectedFieldTypeError) Error() string {
	return fmt.Sprintf("certificate field %q is not a %s", e.Key, e.Want)
}

// Parse decodes a raw certificate as supplied by the issuing API.
//
// The first CASignatureSize bytes are taken verbatim as the CA signature;
// the remainder must be a CBOR map holding the seven documented fields.
// Field order in the encoding is irrelevant. Unknown extra keys are
// ignored for forward compatibility.
func Parse(raw []byte) (*Certificate, error) {
	if len(raw) < CASignatureSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrCertTooShort, len(raw))
	}

	sig := make([]byte, CASignatureSize)
	copy(sig, raw[:CASignatureSize])
	payload := make([]byte, len(raw)-CASignatureSize)
	copy(payload, raw[CASignatureSize:])

	var fields map[string]cbor.RawMessage
	if err := cbor.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	c := &Certificate{
		CASignature: sig,
		Payload:     payload,
	}

	if err := decodeField(fields, fieldCertID, "unsigned integer", &c.ID); err != nil {
		return nil, err
	}
	if err := decodeField(fields, fieldFrameID, "text string", &c.FrameID); err != nil {
		return nil, err
	}
	if err := decodeField(fields, fieldSerial, "text string", &c.Serial); err != nil {
		return nil, err
	}
	if err := decodeField(fields, fieldExpiry, "unsigned integer", &c.Expiry); err != nil {
		return nil, err
	}

	var role uint64
	if err := decodeField(fields, fieldRole, "unsigned integer", &role); err != nil {
		return nil, err
	}
	if role > 0xFF {
		return nil, &UnexpectedFieldTypeError{Key: fieldRole, Want: "unsigned integer <= 255"}
	}
	c.Role = Role(role)

	var userID []byte
	if err := decodeField(fields, fieldUserID, "byte string", &userID); err != nil {
		return nil, err
	}
	if len(userID) != UserIDSize {
		return nil, &UnexpectedFieldTypeError{Key: fieldUserID, Want: fmt.Sprintf("%d-byte string", UserIDSize)}
	}
	c.UserID = userID

	var pub []byte
	if err := decodeField(fields, fieldPublicKey, "byte string", &pub); err != nil {
		return nil, err
	}
	if len(pub) != PublicKeySize {
		return nil, &UnexpectedFieldTypeError{Key: fieldPublicKey, Want: fmt.Sprintf("%d-byte string", PublicKeySize)}
	}
	c.PublicKey = ed25519.PublicKey(pub)

	return c, nil
}

// decodeField extracts one required field from the payload map.
func decodeField(fields map[string]cbor.RawMessage, key, want string, v any) error {
	raw, ok := fields[key]
	if !ok {
		return &MissingFieldError{Key: key}
	}
	if err := cbor.Unmarshal(raw, v); err != nil {
		return &UnexpectedFieldTypeError{Key: key, Want: want}
	}
	return nil
}
