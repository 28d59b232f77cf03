// Package cert parses and holds VanMoof rider credentials.
//
// A certificate is issued by the VanMoof API and binds an Ed25519 public
// key to a bike frame and a role. On the wire it is:
//
//	caSignature(64) | CBOR map payload
//
// The CA signature is opaque to the client: it is produced by the issuing
// authority and must be retransmitted byte-for-byte during authentication,
// never recomputed. The payload is a CBOR map with seven single-character
// keys:
//
//	"i"  certificate ID   (unsigned integer)
//	"f"  frame ID         (text)
//	"s"  serial           (text, may equal the frame ID)
//	"e"  expiry           (unsigned integer, Unix seconds)
//	"r"  role             (unsigned integer <= 255; 7 = owner)
//	"u"  user ID          (16 raw bytes)
//	"p"  public key       (32 raw bytes, Ed25519)
//
// Parsing is order-independent and validates only presence and type. The
// expiry is surfaced but not enforced here; whether to use an expired
// certificate is the caller's policy decision.
package cert
