package auth

// Phase is the session's position in the handshake.
type Phase uint8

const (
	// PhaseIdle is the zero value; a constructed session never reports it.
	PhaseIdle Phase = iota

	// PhaseAwaitingInit waits for the bike's first status frame.
	PhaseAwaitingInit

	// PhaseInitEchoed is the instant between echoing the status frame and
	// sending the certificate. Transient: HandleFrame passes through it
	// within a single call.
	PhaseInitEchoed

	// PhaseAwaitingChallenge waits for the 16-byte challenge.
	PhaseAwaitingChallenge

	// PhaseChallengeAnswered waits for the bike's verdict on the
	// challenge signature.
	PhaseChallengeAnswered

	// PhaseAuthenticated allows control commands to be sent.
	PhaseAuthenticated

	// PhaseFailed is terminal. The failure reason is preserved.
	PhaseFailed
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseAwaitingInit:
		return "AWAITING_INIT"
	case PhaseInitEchoed:
		return "INIT_ECHOED"
	case PhaseAwaitingChallenge:
		return "AWAITING_CHALLENGE"
	case PhaseChallengeAnswered:
		return "CHALLENGE_ANSWERED"
	case PhaseAuthenticated:
		return "AUTHENTICATED"
	case PhaseFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}
