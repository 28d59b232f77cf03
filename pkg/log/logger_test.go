package log

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

// captureLogger records events for assertions.
type captureLogger struct {
	events []Event
}

func (c *captureLogger) Log(event Event) {
	c.events = append(c.events, event)
}

func TestNoopLogger(t *testing.T) {
	var l NoopLogger
	l.Log(NewErrorEvent("s1", errors.New("boom"), "test")) // must not panic
}

func TestMultiLogger(t *testing.T) {
	a := &captureLogger{}
	b := &captureLogger{}

	m := NewMultiLogger(a, nil, b)
	m.Log(NewPhaseChangeEvent("s1", "AWAITING_INIT", "AWAITING_CHALLENGE", ""))

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Fatalf("expected both loggers to receive the event, got %d and %d", len(a.events), len(b.events))
	}
	if a.events[0].PhaseChange.NewPhase != "AWAITING_CHALLENGE" {
		t.Errorf("unexpected phase: %+v", a.events[0].PhaseChange)
	}
}

func TestNewFrameEventTruncation(t *testing.T) {
	data := bytes.Repeat([]byte{0xEE}, MaxFrameDataSize+100)

	event := NewFrameEvent("s1", DirectionOut, data, "certificate")
	if event.Frame.Size != len(data) {
		t.Errorf("Size = %d, want %d", event.Frame.Size, len(data))
	}
	if len(event.Frame.Data) != MaxFrameDataSize {
		t.Errorf("Data length = %d, want %d", len(event.Frame.Data), MaxFrameDataSize)
	}
	if !event.Frame.Truncated {
		t.Error("Truncated = false, want true")
	}
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	adapter := NewSlogAdapter(logger)
	adapter.Log(NewFrameEvent("s1", DirectionIn, []byte{0x81, 0x00, 0x0D, 0x05}, ""))
	adapter.Log(NewPhaseChangeEvent("s1", "AWAITING_INIT", "FAILED", "header mismatch"))

	out := buf.String()
	for _, want := range []string{"direction=IN", "frame=81000d05", "new_phase=FAILED", "reason=\"header mismatch\""} {
		if !strings.Contains(out, want) {
			t.Errorf("slog output missing %q:\n%s", want, out)
		}
	}
}
