// Package log provides structured protocol logging for the bike link.
//
// It defines the Logger interface and Event types for capturing protocol
// events (frames in/out, handshake phase changes, errors). It is separate
// from operational logging (slog) - protocol capture gives a
// machine-readable trace of a session for debugging against real bikes.
//
// Applications configure logging by providing a Logger implementation:
//
//	// Development: protocol events on the console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// Multiple sinks
//	cfg.ProtocolLogger = log.NewMultiLogger(a, b)
//
// Events never contain key material; frame payloads are truncated at
// MaxFrameDataSize.
package log
