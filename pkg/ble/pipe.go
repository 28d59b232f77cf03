package ble

import "sync"

// frameBufferSize is the per-direction frame buffer. The handshake never
// has more than a couple of frames in flight.
const frameBufferSize = 16

// Pipe returns two linked in-memory Links: frames sent on one side
// arrive on the other. Closing either side closes both. Used by the
// bike simulator and by tests.
func Pipe() (Link, Link) {
	shared := &pipeShared{
		done: make(chan struct{}),
	}
	aToB := make(chan []byte, frameBufferSize)
	bToA := make(chan []byte, frameBufferSize)

	a := &pipeEnd{shared: shared, send: aToB, recv: bToA}
	b := &pipeEnd{shared: shared, send: bToA, recv: aToB}
	return a, b
}

// pipeShared holds state common to both ends of a pipe.
type pipeShared struct {
	done      chan struct{}
	closeOnce sync.Once
}

type pipeEnd struct {
	shared *pipeShared
	send   chan []byte
	recv   chan []byte
}

func (e *pipeEnd) Send(frame []byte) error {
	cp := make([]byte, len(frame))
	copy(cp, frame)

	// Check done first: a select with both cases ready picks randomly,
	// which would let a Send on a closed pipe succeed.
	select {
	case <-e.shared.done:
		return ErrLinkClosed
	default:
	}

	select {
	case <-e.shared.done:
		return ErrLinkClosed
	case e.send <- cp:
		return nil
	}
}

func (e *pipeEnd) Frames() <-chan []byte {
	return e.recv
}

func (e *pipeEnd) Close() error {
	e.shared.closeOnce.Do(func() {
		close(e.shared.done)
	})
	return nil
}

// Done exposes the pipe's close signal so simulator loops can stop
// without a context.
func (e *pipeEnd) Done() <-chan struct{} {
	return e.shared.done
}
