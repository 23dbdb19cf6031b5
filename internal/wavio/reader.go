// Package wavio provides the WAV file collaborators for the conversion
// pipeline: a seekable interleaved-float reader and a direct PCM writer.
package wavio

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Reader decodes a WAV file into interleaved float64 frames normalized to
// [-1, 1]. Seeking is implemented by reopening the file, which is adequate
// for the offline two-pass workflow (the driver only ever rewinds to the
// start).
type Reader struct {
	path string
	file *os.File
	dec  *wav.Decoder

	channels int
	rate     int
	bitDepth int
	total    int64

	intBuf *audio.IntBuffer
	invMax float64
}

// OpenReader opens and validates a WAV file.
func OpenReader(path string) (*Reader, error) {
	r := &Reader{path: path}
	if err := r.open(); err != nil {
		return nil, err
	}

	r.invMax = 1.0 / maxSampleValue(r.bitDepth)

	return r, nil
}

func (r *Reader) open() error {
	file, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}

	dec := wav.NewDecoder(file)
	if !dec.IsValidFile() {
		_ = file.Close()
		return fmt.Errorf("invalid WAV file: %s", r.path)
	}

	format := dec.Format()
	r.file = file
	r.dec = dec
	r.channels = format.NumChannels
	r.rate = format.SampleRate
	r.bitDepth = int(dec.BitDepth)

	// The duration reported by the decoder includes container overhead.
	// The exact frame count is the PCM data chunk length in frames.
	if err := dec.FwdToPCM(); err != nil {
		_ = file.Close()
		return fmt.Errorf("invalid WAV file: %s: %w", r.path, err)
	}
	bytesPerFrame := int64(r.channels) * int64(r.bitDepth/bitsPerByte)
	if bytesPerFrame > 0 {
		r.total = dec.PCMLen() / bytesPerFrame
	}

	return nil
}

// Channels returns the channel count.
func (r *Reader) Channels() int { return r.channels }

// SampleRate returns the sample rate in Hz.
func (r *Reader) SampleRate() int { return r.rate }

// BitDepth returns the PCM bit depth.
func (r *Reader) BitDepth() int { return r.bitDepth }

// TotalFrames returns the declared frame count.
func (r *Reader) TotalFrames() int64 { return r.total }

// ReadBlock reads up to frames interleaved frames into dst, normalized to
// [-1, 1]. Returns the number of frames read; zero at end of stream.
func (r *Reader) ReadBlock(dst []float64, frames int) (int, error) {
	want := frames * r.channels
	if len(dst) < want {
		return 0, fmt.Errorf("wavio: destination holds %d samples, need %d", len(dst), want)
	}

	if r.intBuf == nil || cap(r.intBuf.Data) < want {
		r.intBuf = &audio.IntBuffer{
			Data:   make([]int, want),
			Format: &audio.Format{NumChannels: r.channels, SampleRate: r.rate},
		}
	}
	r.intBuf.Data = r.intBuf.Data[:want]

	// PCMBuffer reports individual samples, not frames.
	n, err := r.dec.PCMBuffer(r.intBuf)
	if err != nil {
		return 0, fmt.Errorf("failed to read audio data: %w", err)
	}
	got := n / r.channels
	if got == 0 {
		return 0, nil
	}

	data := r.intBuf.Data[:got*r.channels]
	for i, s := range data {
		dst[i] = float64(s) * r.invMax
	}

	return got, nil
}

// Seek repositions the stream to an absolute frame offset by reopening the
// decoder and skipping forward.
func (r *Reader) Seek(frame int64) error {
	if err := r.file.Close(); err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}
	if frame == 0 {
		return nil
	}

	const skipBlock = 4096
	scratch := make([]float64, skipBlock*r.channels)
	for frame > 0 {
		step := skipBlock
		if int64(step) > frame {
			step = int(frame)
		}
		n, err := r.ReadBlock(scratch, step)
		if err != nil {
			return err
		}
		if n == 0 {
			break
		}
		frame -= int64(n)
	}

	return nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Sample format constants shared by the reader and writer.
const (
	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32

	maxInt16 = 32767.0
	maxInt24 = 8388607.0
	maxInt32 = 2147483647.0
)

// maxSampleValue returns the maximum PCM value for a bit depth.
func maxSampleValue(bitDepth int) float64 {
	switch bitDepth {
	case bitsPerSample24:
		return maxInt24
	case bitsPerSample32:
		return maxInt32
	default:
		return maxInt16
	}
}

// DeclaredOutputFrames computes the frame count declared in the output
// header at creation time: trunc(inputFrames*ratio + 0.1). Informational
// sizing only; the actual written count may differ and is patched into the
// header on close.
func DeclaredOutputFrames(inputFrames int64, ratio float64) int64 {
	return int64(float64(inputFrames)*ratio + 0.1)
}
