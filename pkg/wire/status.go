package wire

import (
	"bytes"
	"fmt"
)

// indefMapMarker starts an indefinite-length CBOR map, which is what the
// bike's status payloads use on observed firmware.
const indefMapMarker = 0xBF

// Status is the decoded payload of a status frame.
//
// Fields are pointers so that an absent key can be distinguished from an
// explicit false: the auth session treats "auth absent" as a rejection,
// not as success.
type Status struct {
	// Encrypted reports whether the bike wants channel encryption.
	// The S5/A5 protocol negotiates enc:false.
	Encrypted *bool `cbor:"enc"`

	// Authenticated reports whether the bike considers the session
	// authenticated.
	Authenticated *bool `cbor:"auth"`
}

// AuthGranted reports whether the status explicitly carries auth:true.
func (s *Status) AuthGranted() bool {
	return s.Authenticated != nil && *s.Authenticated
}

// EncodeStatus encodes a status payload as a CBOR map.
// Used by tests and the bike simulator; the client only decodes.
func EncodeStatus(encrypted, authenticated bool) ([]byte, error) {
	return Marshal(map[string]bool{
		"enc":  encrypted,
		"auth": authenticated,
	})
}

// DecodeStatus decodes a status frame payload.
//
// The payload is a self-describing CBOR map. Firmware revisions differ:
// some emit the map directly, some prefix it with stray bytes before the
// 0xBF indefinite-length marker, so decoding falls back to scanning for
// the marker. Fails with ErrMalformedPayload when no decodable map is
// found.
func DecodeStatus(payload []byte) (*Status, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty status payload", ErrMalformedPayload)
	}

	// Common case: the payload is the map.
	if st, err := decodeStatusAt(payload); err == nil {
		return st, nil
	}

	// Fallback: scan for the indefinite-length map marker.
	for i := 1; i < len(payload); i++ {
		if payload[i] != indefMapMarker {
			continue
		}
		if st, err := decodeStatusAt(payload[i:]); err == nil {
			return st, nil
		}
	}

	return nil, fmt.Errorf("%w: no status map in %d-byte payload", ErrMalformedPayload, len(payload))
}

func decodeStatusAt(data []byte) (*Status, error) {
	var st Status
	// Decode a single CBOR item and ignore trailing bytes.
	if err := decMode.NewDecoder(bytes.NewReader(data)).Decode(&st); err != nil {
		return nil, err
	}
	return &st, nil
}
