// Package dsp holds the numeric building blocks shared by the sound level
// meter worker: the byte-to-float sample unpacker, a pooled float64 scratch
// buffer, and the depth-indexed buffer stack used by the DAG evaluator.
package dsp

import (
	"github.com/ambiosense/soundmeter/internal/slerrors"
)

// MaxSampleWidth is the widest packed sample this unpacker accepts.
const MaxSampleWidth = 4

// scale holds 1/2^(8*width-1) for width in [1,4], memoized so the hot path
// never calls math.Pow.
var scale = [MaxSampleWidth + 1]float64{
	1: 1.0 / (1 << 7),
	2: 1.0 / (1 << 15),
	3: 1.0 / (1 << 23),
	4: 1.0 / (1 << 31),
}

// Unpack converts a packed little-endian PCM byte span into normalized
// float64 samples in [-1, +1), one sample per `width` bytes, writing into
// dst (which must have length len(src)/width). Full-scale positive maps to
// 1.0 - 2^-(8*width-1), matching spec's wording for the widest supported
// width (4 bytes => 1.0 - 2^-31).
//
// Iteration runs back-to-front: when dst and src share the same backing
// array (the caller reinterpreting a byte buffer it already owns as the
// destination), writing the highest-index float first means every source
// byte still needed by a later (lower-index) iteration has already been
// consumed before it could be clobbered by an earlier float write.
func Unpack(dst []float64, src []byte, width int) error {
	if width < 1 || width > MaxSampleWidth {
		return slerrors.Newf("unsupported sample width: %d bytes", width).
			Component("dsp").
			Category(slerrors.CategoryValidation).
			Build()
	}
	n := len(src) / width
	if len(dst) < n {
		return slerrors.Newf("destination too small: need %d, have %d", n, len(dst)).
			Component("dsp").
			Category(slerrors.CategoryValidation).
			Build()
	}
	sc := scale[width]
	for i := n - 1; i >= 0; i-- {
		off := i * width
		dst[i] = float64(signExtend(src[off:off+width])) * sc
	}
	return nil
}

// signExtend interprets b (1..4 little-endian bytes) as a signed integer,
// sign-extended to int32.
func signExtend(b []byte) int32 {
	var v int32
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | int32(b[i])
	}
	shift := uint(32 - 8*len(b))
	return v << shift >> shift
}

// UnpackAlloc is a convenience wrapper that allocates its own destination.
func UnpackAlloc(src []byte, width int) ([]float64, error) {
	dst := make([]float64, len(src)/width)
	if err := Unpack(dst, src, width); err != nil {
		return nil, err
	}
	return dst, nil
}
