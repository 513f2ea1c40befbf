package dsp

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnpack_16Bit(t *testing.T) {
	src := make([]byte, 8)
	binary.LittleEndian.PutUint16(src[0:2], uint16(int16(32767)))
	binary.LittleEndian.PutUint16(src[2:4], uint16(int16(-32768)))
	binary.LittleEndian.PutUint16(src[4:6], uint16(int16(0)))
	binary.LittleEndian.PutUint16(src[6:8], uint16(int16(-1)))

	dst := make([]float64, 4)
	require.NoError(t, Unpack(dst, src, 2))

	assert.InDelta(t, 0.999969, dst[0], 1e-6)
	assert.InDelta(t, -1.0, dst[1], 1e-9)
	assert.InDelta(t, 0.0, dst[2], 1e-9)
	assert.InDelta(t, -1.0/32768, dst[3], 1e-9)
}

func TestUnpack_32Bit_FullScale(t *testing.T) {
	src := make([]byte, 4)
	binary.LittleEndian.PutUint32(src, uint32(int32(2147483647)))

	dst := make([]float64, 1)
	require.NoError(t, Unpack(dst, src, 4))

	assert.InDelta(t, 1.0, dst[0], 1e-9)
}

func TestUnpack_InvalidWidth(t *testing.T) {
	dst := make([]float64, 1)
	assert.Error(t, Unpack(dst, []byte{0, 0}, 0))
	assert.Error(t, Unpack(dst, []byte{0, 0, 0, 0, 0}, 5))
}

func TestUnpack_DestinationTooSmall(t *testing.T) {
	dst := make([]float64, 1)
	src := make([]byte, 8) // 4 samples at width 2
	assert.Error(t, Unpack(dst, src, 2))
}

func TestUnpack_BackToFront_SameLength(t *testing.T) {
	// Regression guard: even though Unpack writes back-to-front, every
	// sample must land at the correct forward index.
	src := make([]byte, 6)
	binary.LittleEndian.PutUint16(src[0:2], 100)
	binary.LittleEndian.PutUint16(src[2:4], 200)
	binary.LittleEndian.PutUint16(src[4:6], 300)

	dst := make([]float64, 3)
	require.NoError(t, Unpack(dst, src, 2))

	assert.Less(t, dst[0], dst[1])
	assert.Less(t, dst[1], dst[2])
}

func TestUnpackAlloc(t *testing.T) {
	src := make([]byte, 4)
	binary.LittleEndian.PutUint16(src[0:2], uint16(int16(16384)))
	binary.LittleEndian.PutUint16(src[2:4], uint16(int16(-16384)))

	out, err := UnpackAlloc(src, 2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.InDelta(t, 0.5, out[0], 1e-9)
	assert.InDelta(t, -0.5, out[1], 1e-9)
}
