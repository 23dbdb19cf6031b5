package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFIFOWriteRead(t *testing.T) {
	f := NewFIFO(8)
	assert.Equal(t, 0, f.Len())

	f.Write([]float64{1, 2, 3})
	assert.Equal(t, 3, f.Len())

	dst := make([]float64, 3)
	n := f.ReadInto(dst)
	assert.Equal(t, 3, n)
	assert.Equal(t, []float64{1, 2, 3}, dst)
	assert.Equal(t, 0, f.Len())
}

func TestFIFOPeekDoesNotConsume(t *testing.T) {
	f := NewFIFO(8)
	f.Write([]float64{1, 2, 3, 4})

	dst := make([]float64, 2)
	n := f.PeekInto(dst)
	assert.Equal(t, 2, n)
	assert.Equal(t, []float64{1, 2}, dst)
	assert.Equal(t, 4, f.Len())

	n = f.ReadInto(dst)
	assert.Equal(t, 2, n)
	assert.Equal(t, []float64{1, 2}, dst, "peek left the samples in place")
}

func TestFIFOWraparound(t *testing.T) {
	f := NewFIFO(8)

	f.Write([]float64{1, 2, 3, 4, 5, 6})
	assert.Equal(t, 4, f.Discard(4))

	// Write wraps around the end of the backing array.
	f.Write([]float64{7, 8, 9, 10, 11})
	require.Equal(t, 7, f.Len())

	dst := make([]float64, 7)
	n := f.ReadInto(dst)
	assert.Equal(t, 7, n)
	assert.Equal(t, []float64{5, 6, 7, 8, 9, 10, 11}, dst)
}

func TestFIFOGrow(t *testing.T) {
	f := NewFIFO(4)

	samples := make([]float64, 20)
	for i := range samples {
		samples[i] = float64(i)
	}
	f.Write(samples)
	require.Equal(t, 20, f.Len())

	dst := make([]float64, 20)
	f.ReadInto(dst)
	assert.Equal(t, samples, dst)
}

func TestFIFOGrowWhileWrapped(t *testing.T) {
	f := NewFIFO(8)

	f.Write([]float64{1, 2, 3, 4, 5, 6})
	f.Discard(4)
	f.Write([]float64{7, 8, 9, 10}) // wraps

	big := make([]float64, 16)
	for i := range big {
		big[i] = float64(100 + i)
	}
	f.Write(big) // forces growth with wrapped content

	want := append([]float64{5, 6, 7, 8, 9, 10}, big...)
	dst := make([]float64, len(want))
	n := f.ReadInto(dst)
	assert.Equal(t, len(want), n)
	assert.Equal(t, want, dst)
}

func TestFIFODiscardBounds(t *testing.T) {
	f := NewFIFO(8)
	f.Write([]float64{1, 2, 3})

	assert.Equal(t, 3, f.Discard(10), "discard is capped at the buffered count")
	assert.Equal(t, 0, f.Len())
	assert.Equal(t, 0, f.Discard(1))
}

func TestFIFOShortRead(t *testing.T) {
	f := NewFIFO(8)
	f.Write([]float64{1, 2})

	dst := make([]float64, 5)
	n := f.ReadInto(dst)
	assert.Equal(t, 2, n)
	assert.Equal(t, []float64{1, 2}, dst[:n])
}

func TestFIFOClear(t *testing.T) {
	f := NewFIFO(8)
	f.Write([]float64{1, 2, 3})
	f.Clear()

	assert.Equal(t, 0, f.Len())

	f.Write([]float64{9})
	dst := make([]float64, 1)
	f.ReadInto(dst)
	assert.Equal(t, []float64{9}, dst)
}

func TestFIFOMinimumCapacity(t *testing.T) {
	f := NewFIFO(0)
	f.Write([]float64{1, 2, 3})

	dst := make([]float64, 3)
	assert.Equal(t, 3, f.ReadInto(dst))
	assert.Equal(t, []float64{1, 2, 3}, dst)
}
