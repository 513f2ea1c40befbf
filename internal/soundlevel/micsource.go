package soundlevel

import "context"

// MicrophoneSource is the external collaborator that feeds raw PCM bytes
// into the meter's ring buffer. The core package only depends on this
// interface; internal/micsource/malgo provides the one concrete adapter.
type MicrophoneSource interface {
	// Start begins delivering captured audio to sink until ctx is
	// canceled or Stop is called. sink is a callback taking raw PCM bytes;
	// the Meter passes one that writes them into its RingBuffer.
	Start(ctx context.Context, sink func(p []byte)) error
	// Stop halts capture. Idempotent.
	Stop() error
	// IsRunning reports whether capture is currently active. The worker
	// polls this once per tick so a dropped or never-started device is
	// treated as a transient source failure rather than silent silence.
	IsRunning() bool
	// SampleRate reports the capture sample rate in Hz.
	SampleRate() float64
	// SampleWidth reports bytes per sample (e.g. 2 for 16-bit PCM).
	SampleWidth() int
}
