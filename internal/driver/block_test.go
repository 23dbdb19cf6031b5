package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockBufferRoundTrip(t *testing.T) {
	b := NewBlockBuffer(2, 4)
	src := []float64{
		0.1, -0.1,
		0.2, -0.2,
		0.3, -0.3,
	}

	require.NoError(t, b.Deinterleave(src, 3))
	assert.Equal(t, 3, b.Frames())

	data := b.Data()
	require.Len(t, data, 2)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, data[0])
	assert.Equal(t, []float64{-0.1, -0.2, -0.3}, data[1])

	dst := make([]float64, 6)
	n, err := b.InterleaveClipped(dst)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, src, dst)
}

func TestBlockBufferClipsOnInterleave(t *testing.T) {
	b := NewBlockBuffer(1, 3)
	require.NoError(t, b.SetFrames(3))

	data := b.Data()
	data[0][0] = 1.7
	data[0][1] = -2.5
	data[0][2] = 0.5

	dst := make([]float64, 3)
	_, err := b.InterleaveClipped(dst)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.0, -1.0, 0.5}, dst)
}

func TestBlockBufferBounds(t *testing.T) {
	b := NewBlockBuffer(2, 4)

	assert.Error(t, b.Deinterleave(make([]float64, 16), 5), "frames beyond capacity")
	assert.Error(t, b.Deinterleave(make([]float64, 3), 4), "source too short")
	assert.Error(t, b.SetFrames(-1))
	assert.Error(t, b.SetFrames(5))
	require.NoError(t, b.SetFrames(4))

	assert.Error(t, func() error {
		_, err := b.InterleaveClipped(make([]float64, 7))
		return err
	}(), "destination too short")
}

func TestClip(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.0, 0.0},
		{0.999, 0.999},
		{1.0, 1.0},
		{1.0001, 1.0},
		{42.0, 1.0},
		{-1.0, -1.0},
		{-3.5, -1.0},
	}

	for _, tt := range tests {
		got := Clip(tt.in)
		assert.Equal(t, tt.want, got, "Clip(%v)", tt.in)
		assert.Equal(t, got, Clip(got), "clipping is idempotent")
	}
}
