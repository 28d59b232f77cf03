// Package auth implements the challenge-response handshake that turns a
// connected BLE link into an authenticated session.
//
// # Handshake
//
// The bike speaks first. The full exchange is:
//
//  1. Bike sends a status frame ({enc:false, auth:false}).
//  2. Client echoes the status frame back unchanged.
//  3. Client sends its certificate (CA signature + CBOR payload, verbatim
//     as issued).
//  4. Bike sends a 16-byte challenge.
//  5. Client signs the challenge with its Ed25519 private key and sends
//     the 64-byte signature.
//  6. Bike sends a status frame with auth:true (or auth:false on
//     rejection).
//
// # Header Pinning
//
// The bike's first frame carries a header byte of 0x80, 0x81 or 0x82
// depending on firmware revision, and every client frame for that session
// must mirror it. The session records the byte from the first status
// frame and uses it for all outbound frames; 0x81 is common but must not
// be assumed.
//
// # Driving the Session
//
// A Session is a synchronous reactor: feed it one inbound frame at a time
// via HandleFrame and write the returned frames to the link. It is not
// safe for concurrent use; independent sessions share nothing and may run
// in parallel. The session imposes no timeouts - wrap the frame wait in a
// context deadline and Fail the session on expiry.
package auth
