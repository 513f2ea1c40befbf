package dsp

import "sync"

// bufferPools holds one sync.Pool per bucketed capacity so buffers returned
// to the pool are reused by callers that asked for a similar size, mirroring
// the teacher's InitFloat32Pool/ReturnFloat32Buffer pattern for its own
// conversion scratch buffers, adapted here to float64 since the DSP chain
// runs in double precision.
var bufferPools sync.Map // map[int]*sync.Pool, keyed by bucketed capacity

// bucket rounds n up to the next power of two, capping the number of
// distinct pools the process accumulates.
func bucket(n int) int {
	b := 64
	for b < n {
		b *= 2
	}
	return b
}

func poolFor(capHint int) *sync.Pool {
	key := bucket(capHint)
	if p, ok := bufferPools.Load(key); ok {
		return p.(*sync.Pool)
	}
	p := &sync.Pool{
		New: func() any {
			buf := make([]float64, 0, key)
			return &buf
		},
	}
	actual, _ := bufferPools.LoadOrStore(key, p)
	return actual.(*sync.Pool)
}

// GetBuffer returns a zero-length float64 slice with capacity at least n,
// either recycled from the pool or freshly allocated.
func GetBuffer(n int) []float64 {
	p := poolFor(n)
	buf := p.Get().(*[]float64)
	return (*buf)[:0]
}

// PutBuffer returns buf to the pool it was drawn from for reuse by a later
// GetBuffer call. Callers must not use buf after calling PutBuffer.
func PutBuffer(buf []float64) {
	if cap(buf) == 0 {
		return
	}
	p := poolFor(cap(buf))
	reset := buf[:0]
	p.Put(&reset)
}
