package driver

// Input is the audio source collaborator: an opened, seekable stream of
// interleaved float frames with known geometry.
type Input interface {
	// Channels returns the channel count.
	Channels() int

	// SampleRate returns the sample rate in Hz.
	SampleRate() int

	// TotalFrames returns the declared total frame count.
	TotalFrames() int64

	// ReadBlock reads up to frames interleaved frames into dst, which
	// must hold at least frames*Channels() samples. A zero count with a
	// nil or io.EOF error is normal end of stream, not a failure.
	ReadBlock(dst []float64, frames int) (int, error)

	// Seek repositions the stream to an absolute frame offset.
	Seek(frame int64) error

	// Close releases the source.
	Close() error
}

// Output is the audio sink collaborator accepting interleaved float frames.
type Output interface {
	// WriteBlock writes frames interleaved frames from src.
	WriteBlock(src []float64, frames int) error

	// Close finalizes and releases the sink.
	Close() error
}
