package cert

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
)

// Credential errors.
var (
	// ErrKeyTooShort indicates the decoded private key has fewer than
	// 32 bytes.
	ErrKeyTooShort = errors.New("private key too short")

	// ErrKeyMismatch indicates the certificate's embedded public key does
	// not match the supplied private key.
	ErrKeyMismatch = errors.New("certificate public key does not match private key")
)

// Credentials pairs a private signing key with the certificate that binds
// its public half. Both come from the issuing API; nothing here is
// generated locally.
type Credentials struct {
	// PrivateKey signs challenges. Never transmitted, never logged.
	PrivateKey ed25519.PrivateKey

	// Certificate is the parsed rider certificate.
	Certificate *Certificate
}

// LoadPrivateKey decodes a base64 Ed25519 private key.
//
// The API hands out keys in both the 32-byte seed form and the 64-byte
// expanded form; in both cases the first 32 bytes are the seed.
func LoadPrivateKey(privKeyB64 string) (ed25519.PrivateKey, error) {
	raw, err := base64.StdEncoding.DecodeString(privKeyB64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}
	if len(raw) < ed25519.SeedSize {
		return nil, fmt.Errorf("%w: %d bytes, need %d", ErrKeyTooShort, len(raw), ed25519.SeedSize)
	}
	return ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize]), nil
}

// LoadCredentials decodes and pairs a base64 private key and certificate,
// verifying that the certificate was issued for this key.
func LoadCredentials(privKeyB64, certB64 string) (*Credentials, error) {
	key, err := LoadPrivateKey(privKeyB64)
	if err != nil {
		return nil, err
	}

	rawCert, err := base64.StdEncoding.DecodeString(certB64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode certificate: %w", err)
	}

	certificate, err := Parse(rawCert)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}

	pub := key.Public().(ed25519.PublicKey)
	if !bytes.Equal(certificate.PublicKey, pub) {
		return nil, ErrKeyMismatch
	}

	return &Credentials{
		PrivateKey:  key,
		Certificate: certificate,
	}, nil
}
