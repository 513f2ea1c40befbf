package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetBuffer_ZeroLengthNonNilCap(t *testing.T) {
	buf := GetBuffer(128)
	assert.Equal(t, 0, len(buf))
	assert.GreaterOrEqual(t, cap(buf), 128)
}

func TestPutBuffer_Recycled(t *testing.T) {
	buf := GetBuffer(256)
	buf = append(buf, 1, 2, 3)
	PutBuffer(buf)

	reused := GetBuffer(256)
	assert.Equal(t, 0, len(reused), "recycled buffer must come back zero-length")
	assert.GreaterOrEqual(t, cap(reused), 256)
}

func TestBucket_MonotonicPowerOfTwo(t *testing.T) {
	assert.Equal(t, 64, bucket(1))
	assert.Equal(t, 64, bucket(64))
	assert.Equal(t, 128, bucket(65))
	assert.Equal(t, 1024, bucket(1000))
}

func TestPutBuffer_ZeroCapNoPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		PutBuffer(nil)
		PutBuffer([]float64{})
	})
}
