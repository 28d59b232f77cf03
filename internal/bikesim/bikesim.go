// Package bikesim simulates the bike side of the BLE protocol for tests
// and for the CLI's -sim mode.
//
// The simulator speaks over a ble.Link: it opens with its status frame,
// expects the echo and certificate, challenges the rider key, verifies
// the Ed25519 response and then acknowledges control commands while
// tracking lock, alarm, power and light state.
package bikesim

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"

	"github.com/openmoof/moof-go/pkg/ble"
	"github.com/openmoof/moof-go/pkg/cert"
	"github.com/openmoof/moof-go/pkg/wire"
)

// Simulator errors.
var (
	ErrPeerViolation = errors.New("peer violated the protocol")
)

// Bike is one simulated bike bound to a link.
type Bike struct {
	link   ble.Link
	header byte

	// Handshake behavior knobs.
	rejectAuth    bool
	skipChallenge bool
	challenge     []byte

	mu sync.Mutex

	authenticated bool
	riderKey      ed25519.PublicKey
	certificate   *cert.Certificate

	// Bike state mutated by commands.
	locked     bool
	armed      bool
	poweredOn  bool
	boost      bool
	powerLevel byte
	lightMode  byte

	commands [][]byte
}

// Option configures a simulated bike.
type Option func(*Bike)

// WithHeader sets the header byte the bike opens with. Defaults to 0x81.
func WithHeader(header byte) Option {
	return func(b *Bike) { b.header = header }
}

// WithRejectAuth makes the bike deny every challenge response.
func WithRejectAuth() Option {
	return func(b *Bike) { b.rejectAuth = true }
}

// WithSkipChallenge makes the bike grant authentication right after the
// certificate, as firmware does for a recently seen key.
func WithSkipChallenge() Option {
	return func(b *Bike) { b.skipChallenge = true }
}

// WithChallenge fixes the challenge nonce instead of drawing a random
// one.
func WithChallenge(challenge []byte) Option {
	return func(b *Bike) { b.challenge = challenge }
}

// New creates a simulated bike on the given link. Call Run to start it.
func New(link ble.Link, opts ...Option) *Bike {
	b := &Bike{
		link:       link,
		header:     0x81,
		locked:     true,
		poweredOn:  true,
		powerLevel: 2,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run drives the bike until the context is cancelled or the link
// closes. It sends the opening status frame and then reacts to inbound
// frames. A protocol violation by the peer ends the run with
// ErrPeerViolation.
func (b *Bike) Run(ctx context.Context) error {
	init := b.statusFrame(false)
	if err := b.link.Send(init); err != nil {
		return err
	}

	awaitingEcho := true
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame := <-b.link.Frames():
			done, err := b.handleFrame(frame, &awaitingEcho, init)
			if err != nil || done {
				return err
			}
		}
	}
}

// handleFrame reacts to one client frame. done is true once the
// simulated session should end (currently only after a rejected
// handshake).
func (b *Bike) handleFrame(raw []byte, awaitingEcho *bool, init []byte) (done bool, err error) {
	if *awaitingEcho {
		if !bytes.Equal(raw, init) {
			return false, fmt.Errorf("%w: echo %X does not match %X", ErrPeerViolation, raw, init)
		}
		*awaitingEcho = false
		return false, nil
	}

	f, err := wire.Decode(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrPeerViolation, err)
	}
	if f.Header != b.header {
		return false, fmt.Errorf("%w: header 0x%02X, want 0x%02X", ErrPeerViolation, f.Header, b.header)
	}

	switch f.Type() {
	case wire.MessageCertificate:
		return b.handleCertificate(f)
	case wire.MessageResponse:
		return b.handleResponse(f)
	case wire.MessageCommand:
		return false, b.handleCommand(f)
	default:
		return false, fmt.Errorf("%w: unexpected frame 0x%02X/0x%02X", ErrPeerViolation, f.CommandGroup, f.Subtype)
	}
}

func (b *Bike) handleCertificate(f wire.Frame) (bool, error) {
	c, err := cert.Parse(f.Payload)
	if err != nil {
		return false, fmt.Errorf("%w: bad certificate: %v", ErrPeerViolation, err)
	}

	b.mu.Lock()
	b.certificate = c
	b.riderKey = c.PublicKey
	b.mu.Unlock()

	if b.skipChallenge {
		b.setAuthenticated(true)
		return false, b.link.Send(b.statusFrame(true))
	}

	if b.challenge == nil {
		b.challenge = make([]byte, wire.ChallengeSize)
		if _, err := rand.Read(b.challenge); err != nil {
			return false, err
		}
	}
	return false, b.link.Send(wire.Encode(b.header, wire.GroupChallenge, wire.SubtypeChallenge, b.challenge))
}

func (b *Bike) handleResponse(f wire.Frame) (bool, error) {
	if len(f.Payload) != wire.SignatureSize {
		return false, fmt.Errorf("%w: response is %d bytes", ErrPeerViolation, len(f.Payload))
	}

	granted := !b.rejectAuth && ed25519.Verify(b.riderKey, b.challenge, f.Payload)
	b.setAuthenticated(granted)

	if err := b.link.Send(b.statusFrame(granted)); err != nil {
		return false, err
	}
	// A denied handshake ends the session, as real firmware drops the
	// connection.
	return !granted, nil
}

// handleCommand applies a control command and acknowledges it.
func (b *Bike) handleCommand(f wire.Frame) error {
	b.mu.Lock()
	if !b.authenticated {
		b.mu.Unlock()
		return fmt.Errorf("%w: command before authentication", ErrPeerViolation)
	}
	b.commands = append(b.commands, f.Encode())
	b.applyCommand(f.Subtype, f.Payload)
	b.mu.Unlock()

	return b.link.Send(wire.Encode(b.header, wire.GroupCommandAck, wire.SubtypeCommandAck, []byte{0x00}))
}

// applyCommand mutates bike state. Callers hold the mutex. Payload is
// commandID, parameter, value.
func (b *Bike) applyCommand(domain byte, payload []byte) {
	if len(payload) != 3 {
		return
	}
	id, param, value := payload[0], payload[1], payload[2]

	switch {
	case domain == 0x01 && id == 0x00 && param == 0xA0:
		b.locked = value == 0x00
	case domain == 0x01 && id == 0x01 && param == 0xA0:
		b.armed = value == 0x01
	case domain == 0x01 && id == 0x00 && param == 0x67:
		b.powerLevel = value
	case domain == 0x01 && id == 0x00 && param == 0x6B:
		b.lightMode = value
	case domain == 0x03 && id == 0x00 && param == 0xA0:
		b.poweredOn = value == 0x01
	case domain == 0x03 && id == 0x01 && param == 0xA0:
		b.boost = value == 0x01
	}
	// Sound and bell commands have no state beyond the command log.
}

func (b *Bike) setAuthenticated(v bool) {
	b.mu.Lock()
	b.authenticated = v
	b.mu.Unlock()
}

// statusFrame builds the bike's status frame. Encryption is always
// reported off; the simulator does not model encrypted sessions.
func (b *Bike) statusFrame(auth bool) []byte {
	payload, err := wire.EncodeStatus(false, auth)
	if err != nil {
		panic(err) // canonical map of two bools cannot fail to encode
	}
	return wire.Encode(b.header, wire.GroupStatus, wire.SubtypeStatus, payload)
}

// Authenticated reports whether the handshake completed.
func (b *Bike) Authenticated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.authenticated
}

// Certificate returns the certificate the client submitted, or nil.
func (b *Bike) Certificate() *cert.Certificate {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.certificate
}

// Locked reports the lock state.
func (b *Bike) Locked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.locked
}

// Armed reports the alarm state.
func (b *Bike) Armed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.armed
}

// PoweredOn reports the motor support state.
func (b *Bike) PoweredOn() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.poweredOn
}

// Boost reports the boost state.
func (b *Bike) Boost() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.boost
}

// PowerLevel reports the assistance level.
func (b *Bike) PowerLevel() byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.powerLevel
}

// LightMode reports the light mode byte.
func (b *Bike) LightMode() byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lightMode
}

// Commands returns the raw command frames received since the start.
func (b *Bike) Commands() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([][]byte, len(b.commands))
	copy(out, b.commands)
	return out
}
