// Package wire defines the byte-level frame format of the VanMoof S5/A5
// BLE protocol.
//
// Every message exchanged over the bike's GATT characteristic is a frame:
//
//	header(1) | 0x00(1) | commandGroup(1) | subtype(1) | payload(N)
//
// The header byte is 0x80, 0x81 or 0x82 depending on the session; the
// second byte is always zero. The (commandGroup, subtype) pair selects the
// message meaning and the payload layout.
//
// # Message Signatures
//
//   - Status:             0x0D / 0x05, CBOR map payload {enc, auth}
//   - Challenge:          0x10 / 0x04, 16 raw bytes
//   - Challenge response: 0x40 / 0x04, 64-byte Ed25519 signature
//   - Certificate:        0xA9 / 0x03, CA signature + CBOR certificate
//   - Control command:    0x03 / domain, 3-byte command payload
//   - Command ack:        0x07 / 0x01
//   - Connection params:  0x1F / 0x07, CBOR map payload
//
// The codec is pure byte slicing with no protocol knowledge; semantic
// validation (expected message at expected phase, header pinning) is the
// auth session's job.
//
// # CBOR Payloads
//
// Status and connection-parameter payloads are self-describing CBOR maps
// with short text keys. Observed firmware emits indefinite-length maps
// (0xBF marker), occasionally preceded by stray bytes; DecodeStatus
// tolerates both.
package wire
