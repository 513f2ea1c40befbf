package dsp

import "github.com/ambiosense/soundmeter/internal/slerrors"

// BufferStack is a depth-indexed stack of scratch buffers used by the DAG
// evaluator to share a filtered buffer across a common filter prefix: Push
// duplicates the current top so a downstream filter can diverge from it
// without disturbing sibling sensors still reading the shared copy. Depth
// only ever grows its backing storage, never shrinks it, so a stack that
// has reached its working depth once never reallocates again.
type BufferStack struct {
	frames [][]float64
	depth  int
}

// NewBufferStack creates an empty stack seeded with one frame of capacity
// frameCap, ready to hold the initial unpacked buffer at depth 0.
func NewBufferStack(frameCap int) *BufferStack {
	s := &BufferStack{}
	s.frames = append(s.frames, make([]float64, 0, frameCap))
	return s
}

// Reset(buf) discards every pushed frame and reinitializes depth 0 with a
// copy of buf, ready for the next audio buffer's DAG walk.
func (s *BufferStack) Reset(buf []float64) {
	s.depth = 0
	s.ensureDepth(0, len(buf))
	s.frames[0] = append(s.frames[0][:0], buf...)
}

// Current returns the frame at the current depth.
func (s *BufferStack) Current() []float64 {
	return s.frames[s.depth]
}

// Depth returns the current depth (0 at the base frame).
func (s *BufferStack) Depth() int { return s.depth }

// Push duplicates the current top frame onto a new depth and returns it,
// growing backing storage only if this depth has never been reached before
// or its frame is too small to hold the top frame.
func (s *BufferStack) Push() []float64 {
	top := s.frames[s.depth]
	s.depth++
	s.ensureDepth(s.depth, len(top))
	dup := s.frames[s.depth][:0]
	dup = append(dup, top...)
	s.frames[s.depth] = dup
	return dup
}

// Pop discards the current top frame and returns to the frame below it. Pop
// at depth 0 is a programming error (mirrors the original's assumption that
// callers never pop past the base frame) and returns an error rather than
// panicking so a misbehaving filter DAG degrades gracefully.
func (s *BufferStack) Pop() error {
	if s.depth == 0 {
		return slerrors.Newf("buffer stack underflow").
			Component("dsp").
			Category(slerrors.CategoryState).
			Build()
	}
	s.depth--
	return nil
}

// ensureDepth grows frames so index d exists with at least capacity cap,
// without ever truncating an existing, larger frame's capacity.
func (s *BufferStack) ensureDepth(d, capHint int) {
	for len(s.frames) <= d {
		s.frames = append(s.frames, make([]float64, 0, capHint))
	}
	if cap(s.frames[d]) < capHint {
		s.frames[d] = make([]float64, 0, capHint)
	}
}
