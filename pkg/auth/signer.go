package auth

import (
	"crypto/ed25519"
)

// Signer produces challenge signatures. Implementations hold the private
// key; the session only ever sees the resulting signature bytes.
type Signer interface {
	// Sign signs the challenge and returns the 64-byte signature.
	Sign(challenge []byte) ([]byte, error)
}

// KeySigner signs with an in-memory Ed25519 private key.
type KeySigner struct {
	key ed25519.PrivateKey
}

// NewKeySigner creates a signer over the given private key.
func NewKeySigner(key ed25519.PrivateKey) *KeySigner {
	return &KeySigner{key: key}
}

// Sign signs the challenge. Ed25519 is deterministic, so the same key and
// challenge always produce the same signature.
func (s *KeySigner) Sign(challenge []byte) ([]byte, error) {
	return ed25519.Sign(s.key, challenge), nil
}

// Compile-time interface satisfaction check.
var _ Signer = (*KeySigner)(nil)
