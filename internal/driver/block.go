// Package driver orchestrates the block-streaming conversion pipeline:
// it reads interleaved audio from an input collaborator, feeds per-channel
// blocks through a stretch engine across the study, process and drain
// phases, and writes clipped interleaved output.
package driver

import (
	"fmt"
)

// BlockBuffer is an owned, bounds-checked per-channel sample container for
// one processing step. It replaces the raw caller-allocated channel arrays
// a C-style driver would juggle around every engine call.
type BlockBuffer struct {
	data     [][]float64
	capacity int
	frames   int
}

// NewBlockBuffer creates a buffer for the given channel count and frame
// capacity. The buffer starts empty.
func NewBlockBuffer(channels, capacity int) *BlockBuffer {
	data := make([][]float64, channels)
	for ch := range data {
		data[ch] = make([]float64, capacity)
	}

	return &BlockBuffer{data: data, capacity: capacity}
}

// Channels returns the channel count.
func (b *BlockBuffer) Channels() int {
	return len(b.data)
}

// Capacity returns the per-channel frame capacity.
func (b *BlockBuffer) Capacity() int {
	return b.capacity
}

// Frames returns the number of valid frames currently held.
func (b *BlockBuffer) Frames() int {
	return b.frames
}

// Data returns the per-channel slices trimmed to the valid frame count.
func (b *BlockBuffer) Data() [][]float64 {
	out := make([][]float64, len(b.data))
	for ch := range b.data {
		out[ch] = b.data[ch][:b.frames]
	}
	return out
}

// SetFrames declares n frames valid, for callers that fill the buffer
// through Data, such as engine retrieves.
func (b *BlockBuffer) SetFrames(n int) error {
	if n < 0 || n > b.capacity {
		return fmt.Errorf("driver: frame count %d outside buffer capacity %d", n, b.capacity)
	}
	b.frames = n
	return nil
}

// Deinterleave fills the buffer from interleaved samples. src must hold at
// least frames*channels values.
func (b *BlockBuffer) Deinterleave(src []float64, frames int) error {
	if frames < 0 || frames > b.capacity {
		return fmt.Errorf("driver: block of %d frames exceeds buffer capacity %d", frames, b.capacity)
	}

	channels := len(b.data)
	if len(src) < frames*channels {
		return fmt.Errorf("driver: interleaved source holds %d samples, need %d", len(src), frames*channels)
	}

	for ch := 0; ch < channels; ch++ {
		dst := b.data[ch]
		for i := 0; i < frames; i++ {
			dst[i] = src[i*channels+ch]
		}
	}

	b.frames = frames
	return nil
}

// InterleaveClipped clips every sample to [-1, 1] and writes the valid
// frames interleaved into dst, returning the number of samples written.
func (b *BlockBuffer) InterleaveClipped(dst []float64) (int, error) {
	channels := len(b.data)
	total := b.frames * channels
	if len(dst) < total {
		return 0, fmt.Errorf("driver: interleave destination holds %d samples, need %d", len(dst), total)
	}

	for ch := 0; ch < channels; ch++ {
		src := b.data[ch]
		for i := 0; i < b.frames; i++ {
			dst[i*channels+ch] = Clip(src[i])
		}
	}

	return total, nil
}

// Clip clamps a sample to the closed interval [-1, 1]. Idempotent.
func Clip(x float64) float64 {
	if x > 1.0 {
		return 1.0
	}
	if x < -1.0 {
		return -1.0
	}
	return x
}
