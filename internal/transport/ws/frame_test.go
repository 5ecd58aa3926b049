package ws

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"x-terrain/internal/transport"
)

func TestFrameRoundTrip(t *testing.T) {
	f, err := decodeFrame(encodeDoubles(5, []float64{1.5, -2.25, math.Pi}))
	require.NoError(t, err)
	assert.Equal(t, transport.KindDoubles, f.kind)
	assert.Equal(t, int32(5), f.tag)
	assert.Equal(t, []float64{1.5, -2.25, math.Pi}, f.doubles())

	f, err = decodeFrame(encodeInts(-3, []int32{-1, 0, 7}))
	require.NoError(t, err)
	assert.Equal(t, transport.KindInts, f.kind)
	assert.Equal(t, int32(-3), f.tag)
	assert.Equal(t, []int32{-1, 0, 7}, f.ints())

	f, err = decodeFrame(encodeUints(0, []uint32{3, 1}))
	require.NoError(t, err)
	assert.Equal(t, []uint32{3, 1}, f.uints())

	f, err = decodeFrame(encodeFloats(2, []float32{0.9, -0.1}))
	require.NoError(t, err)
	assert.Equal(t, []float32{0.9, -0.1}, f.floats())
}

func TestFrameEmptyPayload(t *testing.T) {
	f, err := decodeFrame(encodeDoubles(4, nil))
	require.NoError(t, err)
	assert.Equal(t, int32(4), f.tag)
	assert.Empty(t, f.doubles())
}

func TestFrameControl(t *testing.T) {
	f, err := decodeFrame(encodeControl(transport.KindHello, 2))
	require.NoError(t, err)
	assert.Equal(t, transport.KindHello, f.kind)
	assert.Equal(t, int32(2), f.tag)

	f, err = decodeFrame(encodeControl(transport.KindAbort, 1))
	require.NoError(t, err)
	assert.Equal(t, transport.KindAbort, f.kind)
	assert.Equal(t, int32(1), f.tag)
}

func TestDecodeShortFrame(t *testing.T) {
	_, err := decodeFrame([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestDecodeLengthMismatch(t *testing.T) {
	buf := encodeDoubles(0, []float64{1, 2})
	// Урезанный payload противоречит заявленному count.
	_, err := decodeFrame(buf[:len(buf)-8])
	require.Error(t, err)
}
