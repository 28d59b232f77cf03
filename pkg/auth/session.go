package auth

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/openmoof/moof-go/pkg/cert"
	"github.com/openmoof/moof-go/pkg/command"
	"github.com/openmoof/moof-go/pkg/log"
	"github.com/openmoof/moof-go/pkg/wire"
)

// Session errors.
var (
	// ErrProtocolViolation indicates the bike sent something the protocol
	// does not allow at the current phase (wrong frame, wrong header,
	// wrong challenge length).
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrAuthenticationRejected indicates the bike explicitly denied the
	// handshake (status frame without auth:true after the challenge
	// response).
	ErrAuthenticationRejected = errors.New("authentication rejected by bike")

	// ErrNotAuthenticated indicates a control command was requested
	// before the handshake completed.
	ErrNotAuthenticated = errors.New("session not authenticated")

	// ErrSessionAbandoned is the failure reason when the caller abandons
	// the session via Fail(nil).
	ErrSessionAbandoned = errors.New("session abandoned")
)

// Session is the client side of one authentication handshake and the gate
// for every control command sent afterwards.
//
// A Session is single-threaded: HandleFrame must not be called again
// before the previous call returns. One Session exists per connected
// link; it is discarded when the link closes or the handshake fails.
type Session struct {
	id          string
	certificate *cert.Certificate
	signer      Signer
	logger      log.Logger

	phase        Phase
	header       byte
	headerPinned bool
	challenge    []byte
	failure      error
}

// NewSession creates a session ready to receive the bike's first frame.
// The certificate and signer are externally supplied; the session never
// generates or mutates either.
func NewSession(certificate *cert.Certificate, signer Signer) *Session {
	return &Session{
		id:          uuid.NewString(),
		certificate: certificate,
		signer:      signer,
		logger:      log.NoopLogger{},
		phase:       PhaseAwaitingInit,
	}
}

// SetLogger configures protocol logging. Pass nil to disable.
func (s *Session) SetLogger(logger log.Logger) {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	s.logger = logger
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Phase returns the current handshake phase.
func (s *Session) Phase() Phase {
	return s.phase
}

// Authenticated reports whether the handshake completed successfully.
func (s *Session) Authenticated() bool {
	return s.phase == PhaseAuthenticated
}

// Header returns the pinned session header byte. ok is false until the
// bike's first frame has been received.
func (s *Session) Header() (header byte, ok bool) {
	return s.header, s.headerPinned
}

// Challenge returns a copy of the most recently received challenge nonce,
// or nil if none has arrived.
func (s *Session) Challenge() []byte {
	if s.challenge == nil {
		return nil
	}
	out := make([]byte, len(s.challenge))
	copy(out, s.challenge)
	return out
}

// Err returns the failure reason once the session is in PhaseFailed.
func (s *Session) Err() error {
	return s.failure
}

// Fail moves the session to the terminal failed phase. Callers use it to
// abandon a session (timeout, link loss). The first failure reason wins;
// a nil err records ErrSessionAbandoned.
func (s *Session) Fail(err error) {
	if s.phase == PhaseFailed {
		return
	}
	if err == nil {
		err = ErrSessionAbandoned
	}
	s.failure = err
	s.setPhase(PhaseFailed, err.Error())
}

// HandleFrame processes one inbound frame and returns the frames to write
// back to the link, in order. A returned error means the session has
// moved to PhaseFailed; Err() preserves the reason. Partial output is
// never returned alongside an error.
func (s *Session) HandleFrame(raw []byte) ([][]byte, error) {
	if s.phase == PhaseFailed {
		return nil, fmt.Errorf("session already failed: %w", s.failure)
	}

	f, err := wire.Decode(raw)
	if err != nil {
		return nil, s.fail(err)
	}

	if s.headerPinned && f.Header != s.header {
		return nil, s.fail(fmt.Errorf("%w: header 0x%02X does not match pinned 0x%02X",
			ErrProtocolViolation, f.Header, s.header))
	}

	switch s.phase {
	case PhaseAwaitingInit:
		return s.handleInit(f)
	case PhaseAwaitingChallenge:
		return s.handleChallengePhase(f)
	case PhaseChallengeAnswered:
		return s.handleVerdict(f)
	case PhaseAuthenticated:
		return s.handleAuthenticated(f)
	default:
		return nil, s.fail(fmt.Errorf("%w: frame in phase %s", ErrProtocolViolation, s.phase))
	}
}

// handleInit processes the bike's first status frame: pin the header,
// echo the frame, and submit the certificate.
func (s *Session) handleInit(f wire.Frame) ([][]byte, error) {
	if f.Type() != wire.MessageStatus {
		return nil, s.fail(fmt.Errorf("%w: expected status frame, got %s (0x%02X/0x%02X)",
			ErrProtocolViolation, f.Type(), f.CommandGroup, f.Subtype))
	}
	if _, err := wire.DecodeStatus(f.Payload); err != nil {
		return nil, s.fail(err)
	}

	s.header = f.Header
	s.headerPinned = true

	// Echo the frame byte-for-byte, header forced to the pinned value.
	echo := f
	echo.Header = s.header
	out := [][]byte{echo.Encode()}
	s.setPhase(PhaseInitEchoed, "")

	// Certificate submission follows immediately and unconditionally.
	// Signature and payload go out exactly as issued.
	out = append(out, wire.Encode(s.header, wire.GroupCertificate, wire.SubtypeCertificate,
		s.certificate.SubmissionPayload()))
	s.setPhase(PhaseAwaitingChallenge, "")

	return out, nil
}

// handleChallengePhase processes frames while waiting for the challenge.
func (s *Session) handleChallengePhase(f wire.Frame) ([][]byte, error) {
	switch f.Type() {
	case wire.MessageChallenge:
		if len(f.Payload) != wire.ChallengeSize {
			return nil, s.fail(fmt.Errorf("%w: challenge payload is %d bytes, want %d",
				ErrProtocolViolation, len(f.Payload), wire.ChallengeSize))
		}

		s.challenge = make([]byte, wire.ChallengeSize)
		copy(s.challenge, f.Payload)

		sig, err := s.signer.Sign(s.challenge)
		if err != nil {
			return nil, s.fail(fmt.Errorf("failed to sign challenge: %w", err))
		}
		if len(sig) != wire.SignatureSize {
			return nil, s.fail(fmt.Errorf("signer produced %d bytes, want %d", len(sig), wire.SignatureSize))
		}

		out := [][]byte{wire.Encode(s.header, wire.GroupResponse, wire.SubtypeResponse, sig)}
		s.setPhase(PhaseChallengeAnswered, "")
		return out, nil

	case wire.MessageStatus:
		// Some firmware repeats the status frame before challenging, and
		// skips the challenge entirely for a recently seen key.
		st, err := wire.DecodeStatus(f.Payload)
		if err != nil {
			return nil, s.fail(err)
		}
		if st.AuthGranted() {
			s.setPhase(PhaseAuthenticated, "")
		}
		return nil, nil

	default:
		return nil, s.fail(fmt.Errorf("%w: unexpected %s frame while awaiting challenge",
			ErrProtocolViolation, f.Type()))
	}
}

// handleVerdict processes the bike's status verdict on the challenge
// response.
func (s *Session) handleVerdict(f wire.Frame) ([][]byte, error) {
	if f.Type() != wire.MessageStatus {
		return nil, s.fail(fmt.Errorf("%w: expected status verdict, got %s frame",
			ErrProtocolViolation, f.Type()))
	}

	st, err := wire.DecodeStatus(f.Payload)
	if err != nil {
		return nil, s.fail(err)
	}
	if !st.AuthGranted() {
		return nil, s.fail(ErrAuthenticationRejected)
	}

	s.setPhase(PhaseAuthenticated, "")
	return nil, nil
}

// handleAuthenticated tolerates post-handshake traffic: status
// keep-alives, command acks and connection-parameter frames. Nothing
// transitions; malformed status payloads still fail the session.
func (s *Session) handleAuthenticated(f wire.Frame) ([][]byte, error) {
	if f.Type() == wire.MessageStatus {
		if _, err := wire.DecodeStatus(f.Payload); err != nil {
			return nil, s.fail(err)
		}
	}
	return nil, nil
}

// EncodeCommand frames a control command under the pinned header. Only
// permitted once the session is authenticated; anything earlier is a
// caller bug surfaced as ErrNotAuthenticated, with no bytes produced.
func (s *Session) EncodeCommand(c *command.Command) ([]byte, error) {
	if s.phase != PhaseAuthenticated {
		return nil, fmt.Errorf("%w: phase %s", ErrNotAuthenticated, s.phase)
	}
	return c.Frame(s.header), nil
}

// fail records the failure reason and moves to the terminal phase.
func (s *Session) fail(err error) error {
	s.failure = err
	s.setPhase(PhaseFailed, err.Error())
	s.logger.Log(log.NewErrorEvent(s.id, err, "handshake"))
	return err
}

func (s *Session) setPhase(phase Phase, reason string) {
	old := s.phase
	s.phase = phase
	s.logger.Log(log.NewPhaseChangeEvent(s.id, old.String(), phase.String(), reason))
}
