package cert

import (
	"crypto/ed25519"
	"time"
)

// Wire sizes.
const (
	// CASignatureSize is the size of the issuing authority's signature
	// at the start of a raw certificate.
	CASignatureSize = 64

	// UserIDSize is the size of the user identifier field.
	UserIDSize = 16

	// PublicKeySize is the size of the embedded Ed25519 public key.
	PublicKeySize = ed25519.PublicKeySize
)

// Role is the privilege level a certificate grants on the bike.
type Role uint8

// RoleOwner is the full-privilege owner role. Other values grant
// reduced privilege (shared riders, maintenance access).
const RoleOwner Role = 7

// IsOwner reports whether the role is the owner role.
func (r Role) IsOwner() bool {
	return r == RoleOwner
}

// String returns a human-readable role name.
func (r Role) String() string {
	if r.IsOwner() {
		return "OWNER"
	}
	return "USER"
}

// Certificate is a parsed rider certificate. It is constructed once per
// session from externally supplied bytes and held read-only thereafter.
type Certificate struct {
	// CASignature is the issuing authority's 64-byte signature, kept
	// verbatim for byte-exact retransmission.
	CASignature []byte

	// Payload is the raw CBOR payload as received, also retransmitted
	// byte-for-byte. Never re-encoded from the parsed fields.
	Payload []byte

	// ID is the certificate identifier assigned by the issuer.
	ID uint64

	// FrameID identifies the bike frame this certificate is bound to.
	FrameID string

	// Serial is the bike serial number. May equal FrameID.
	Serial string

	// Expiry is the expiry time in Unix seconds.
	Expiry uint64

	// Role is the privilege level granted.
	Role Role

	// UserID is the 16-byte user identifier.
	UserID []byte

	// PublicKey is the Ed25519 public key the certificate binds.
	PublicKey ed25519.PublicKey
}

// ExpiresAt returns the certificate expiry time.
func (c *Certificate) ExpiresAt() time.Time {
	return time.Unix(int64(c.Expiry), 0)
}

// IsExpired reports whether the certificate has expired.
func (c *Certificate) IsExpired() bool {
	return time.Now().After(c.ExpiresAt())
}

// SubmissionPayload returns the certificate-submission frame payload:
// the CA signature followed by the raw CBOR payload, both exactly as
// received from the issuer.
func (c *Certificate) SubmissionPayload() []byte {
	out := make([]byte, 0, len(c.CASignature)+len(c.Payload))
	out = append(out, c.CASignature...)
	out = append(out, c.Payload...)
	return out
}
