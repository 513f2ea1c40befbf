package soundlevel

import (
	"github.com/smallnest/ringbuffer"

	"github.com/ambiosense/soundmeter/internal/slerrors"
)

// RingBuffer is the producer/consumer hookup between the microphone
// capture callback (producer) and the pinned worker goroutine (consumer):
// a single-producer/single-consumer byte ring, sized in milliseconds of
// audio rather than raw bytes so capture-format changes don't require
// call sites to recompute a byte count.
type RingBuffer struct {
	rb *ringbuffer.RingBuffer
}

// NewRingBuffer sizes the ring to hold durationMs milliseconds of audio at
// bytesPerMs bytes per millisecond (sampleRate * bytesPerSample * channels
// / 1000).
func NewRingBuffer(durationMs, bytesPerMs int) *RingBuffer {
	size := durationMs * bytesPerMs
	if size <= 0 {
		size = bytesPerMs
	}
	rb := ringbuffer.New(size)
	rb.SetBlocking(false)
	return &RingBuffer{rb: rb}
}

// Write is called from the microphone capture callback, the producer. It
// never blocks: when the ring is full the bytes of p that do not fit (the
// newest audio) are dropped and the write is short, while unread audio
// already in the ring is kept, rather than stalling the capture callback.
func (r *RingBuffer) Write(p []byte) (int, error) {
	n, err := r.rb.Write(p)
	if err != nil && err != ringbuffer.ErrTooManyDataToWrite && err != ringbuffer.ErrIsFull {
		return n, slerrors.Newf("ring buffer write: %w", err).
			Component("soundlevel.ringbuffer").
			Category(slerrors.CategoryResource).
			Build()
	}
	return n, nil
}

// Read drains up to len(p) bytes for the pinned worker, the consumer. It
// returns (0, nil) rather than an error when the ring is empty, so the
// worker's steady-state loop can poll it without a dedicated wakeup channel.
func (r *RingBuffer) Read(p []byte) (int, error) {
	n, err := r.rb.Read(p)
	if err == ringbuffer.ErrIsEmpty {
		return 0, nil
	}
	if err != nil {
		return n, slerrors.Newf("ring buffer read: %w", err).
			Component("soundlevel.ringbuffer").
			Category(slerrors.CategoryResource).
			Build()
	}
	return n, nil
}

// Length reports how many unread bytes are currently buffered.
func (r *RingBuffer) Length() int { return r.rb.Length() }

// Capacity reports the ring's total byte capacity.
func (r *RingBuffer) Capacity() int { return r.rb.Capacity() }

// Utilization reports the buffered-to-capacity ratio, for metrics.
func (r *RingBuffer) Utilization() float64 {
	c := r.Capacity()
	if c == 0 {
		return 0
	}
	return float64(r.Length()) / float64(c)
}
