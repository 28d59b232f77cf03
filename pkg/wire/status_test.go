package wire

import (
	"errors"
	"testing"
)

// indefStatus builds an indefinite-length CBOR map {"enc": enc, "auth": auth},
// the form observed on the wire.
func indefStatus(enc, auth bool) []byte {
	boolByte := func(b bool) byte {
		if b {
			return 0xF5
		}
		return 0xF4
	}
	return []byte{
		0xBF,
		0x63, 'e', 'n', 'c', boolByte(enc),
		0x64, 'a', 'u', 't', 'h', boolByte(auth),
		0xFF,
	}
}

func TestDecodeStatusIndefiniteMap(t *testing.T) {
	st, err := DecodeStatus(indefStatus(false, true))
	if err != nil {
		t.Fatalf("DecodeStatus failed: %v", err)
	}
	if st.Encrypted == nil || *st.Encrypted {
		t.Errorf("Encrypted = %v, want false", st.Encrypted)
	}
	if !st.AuthGranted() {
		t.Error("AuthGranted() = false, want true")
	}
}

func TestDecodeStatusDefiniteMap(t *testing.T) {
	payload, err := EncodeStatus(false, false)
	if err != nil {
		t.Fatalf("EncodeStatus failed: %v", err)
	}

	st, err := DecodeStatus(payload)
	if err != nil {
		t.Fatalf("DecodeStatus failed: %v", err)
	}
	if st.AuthGranted() {
		t.Error("AuthGranted() = true, want false")
	}
	if st.Authenticated == nil || *st.Authenticated {
		t.Errorf("Authenticated = %v, want false", st.Authenticated)
	}
}

func TestDecodeStatusLeadingBytes(t *testing.T) {
	// Some firmware prefixes the map with stray bytes.
	payload := append([]byte{0x01, 0x02}, indefStatus(false, true)...)

	st, err := DecodeStatus(payload)
	if err != nil {
		t.Fatalf("DecodeStatus failed: %v", err)
	}
	if !st.AuthGranted() {
		t.Error("AuthGranted() = false, want true")
	}
}

func TestDecodeStatusAbsentAuth(t *testing.T) {
	// {"enc": false} with no auth key: absent must not read as granted.
	payload := []byte{0xBF, 0x63, 'e', 'n', 'c', 0xF4, 0xFF}

	st, err := DecodeStatus(payload)
	if err != nil {
		t.Fatalf("DecodeStatus failed: %v", err)
	}
	if st.Authenticated != nil {
		t.Errorf("Authenticated = %v, want nil (absent)", st.Authenticated)
	}
	if st.AuthGranted() {
		t.Error("AuthGranted() = true for absent auth key")
	}
}

func TestDecodeStatusMalformed(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"empty", nil},
		{"not cbor", []byte{0x01, 0x02, 0x03}},
		{"truncated map", []byte{0xBF, 0x63, 'e', 'n'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeStatus(tt.payload); !errors.Is(err, ErrMalformedPayload) {
				t.Errorf("DecodeStatus(% X): got err %v, want ErrMalformedPayload", tt.payload, err)
			}
		})
	}
}
