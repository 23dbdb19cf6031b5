package wavio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// WAV container layout constants.
const (
	wavHeaderSize      = 44 // Total WAV header size in bytes
	wavRiffHeaderSize  = 36 // RIFF size field base (file size - 8 = base + dataSize)
	wavPCMSubchunkSize = 16 // fmt subchunk size for PCM
	wavFileSizeOffset  = 4  // Byte offset of the RIFF size field
	wavDataSizeOffset  = 40 // Byte offset of the data size field

	bitsPerByte = 8
	uint32Size  = 4

	writerBufferSize = 256 * 1024
)

// Writer encodes interleaved float64 frames into a PCM WAV file, writing
// samples directly without per-sample allocations. The header carries the
// declared frame count at creation; Close patches in the actual data size.
type Writer struct {
	w    *bufio.Writer
	file *os.File

	sampleRate int
	bitDepth   int
	channels   int

	maxVal   float64
	dataSize uint32
	byteBuf  []byte
}

// CreateWriter creates the output file and writes a header sized for
// declaredFrames.
func CreateWriter(path string, sampleRate, bitDepth, channels int, declaredFrames int64) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	w := &Writer{
		w:          bufio.NewWriterSize(file, writerBufferSize),
		file:       file,
		sampleRate: sampleRate,
		bitDepth:   bitDepth,
		channels:   channels,
		maxVal:     maxSampleValue(bitDepth),
	}

	if err := w.writeHeader(declaredFrames); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}

	return w, nil
}

func (w *Writer) writeHeader(declaredFrames int64) error {
	bytesPerFrame := w.channels * (w.bitDepth / bitsPerByte)
	byteRate := w.sampleRate * bytesPerFrame
	declaredData := uint32(declaredFrames) * uint32(bytesPerFrame)

	header := make([]byte, wavHeaderSize)

	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], wavRiffHeaderSize+declaredData)
	copy(header[8:12], "WAVE")

	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], wavPCMSubchunkSize)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(w.channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(w.sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(bytesPerFrame))
	binary.LittleEndian.PutUint16(header[34:36], uint16(w.bitDepth))

	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], declaredData)

	_, err := w.w.Write(header)
	return err
}

// WriteBlock encodes frames interleaved float64 samples at the writer's
// bit depth. Samples are expected pre-clipped to [-1, 1].
func (w *Writer) WriteBlock(src []float64, frames int) error {
	samples := frames * w.channels
	if len(src) < samples {
		return fmt.Errorf("wavio: source holds %d samples, need %d", len(src), samples)
	}

	bytesPerSample := w.bitDepth / bitsPerByte
	needed := samples * bytesPerSample
	if len(w.byteBuf) < needed {
		w.byteBuf = make([]byte, needed)
	}
	buf := w.byteBuf[:needed]

	switch w.bitDepth {
	case bitsPerSample24:
		for i := 0; i < samples; i++ {
			s := int32(src[i] * w.maxVal)
			buf[i*3] = byte(s)
			buf[i*3+1] = byte(s >> 8)
			buf[i*3+2] = byte(s >> 16)
		}
	case bitsPerSample32:
		for i := 0; i < samples; i++ {
			s := int32(src[i] * w.maxVal)
			binary.LittleEndian.PutUint32(buf[i*4:], uint32(s))
		}
	default:
		for i := 0; i < samples; i++ {
			s := int16(src[i] * w.maxVal)
			binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
		}
	}

	written, err := w.w.Write(buf)
	w.dataSize += uint32(written)
	return err
}

// Close flushes buffered data and patches the RIFF and data chunk sizes
// with the actual written byte count.
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		_ = w.file.Close()
		return err
	}

	sizeBytes := make([]byte, uint32Size)

	if _, err := w.file.Seek(wavFileSizeOffset, io.SeekStart); err != nil {
		_ = w.file.Close()
		return err
	}
	binary.LittleEndian.PutUint32(sizeBytes, wavRiffHeaderSize+w.dataSize)
	if _, err := w.file.Write(sizeBytes); err != nil {
		_ = w.file.Close()
		return err
	}

	if _, err := w.file.Seek(wavDataSizeOffset, io.SeekStart); err != nil {
		_ = w.file.Close()
		return err
	}
	binary.LittleEndian.PutUint32(sizeBytes, w.dataSize)
	if _, err := w.file.Write(sizeBytes); err != nil {
		_ = w.file.Close()
		return err
	}

	return w.file.Close()
}
