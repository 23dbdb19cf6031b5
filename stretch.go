package stretch

import (
	"errors"
	"fmt"
	"math"

	"github.com/tphakala/go-audio-stretch/internal/engine"
)

// Stretcher is the block-streaming time/pitch transform engine.
// Configuration is fixed at construction; one instance serves exactly one
// conversion job.
type Stretcher interface {
	// Study informs the engine about one input block without producing
	// output. Offline mode only; blocks must arrive in original order,
	// exactly once each, covering the entire input. The final block of
	// the pass carries final == true.
	Study(blocks [][]float64, frames int, final bool) error

	// Process feeds one input block for transformation. Output may or
	// may not become available immediately; poll Available after each
	// call. The final block of the pass carries final == true.
	Process(blocks [][]float64, frames int, final bool) error

	// Available returns the number of output frames ready to retrieve.
	// Zero means nothing is ready yet but more input or time may produce
	// some; a negative count means the engine holds no more output and
	// none will ever be produced.
	Available() int

	// Retrieve consumes exactly frames output frames into the caller's
	// per-channel blocks. frames must not exceed the most recent
	// Available result. Returns the number of frames written.
	Retrieve(blocks [][]float64, frames int) (int, error)

	// SetExpectedInputDuration hints the total input length in frames
	// for internal buffer sizing. Optional, but recommended before the
	// first Process call.
	SetExpectedInputDuration(frames int64)

	// Reset clears all internal state, returning the engine to the
	// state it had immediately after construction.
	Reset()
}

// Config holds the per-job engine configuration. All fields are fixed for
// the lifetime of the Stretcher built from them.
type Config struct {
	// SampleRate is the audio sample rate in Hz.
	SampleRate int

	// Channels is the number of audio channels.
	Channels int

	// TimeRatio is the target output duration divided by the input
	// duration. 2.0 doubles the duration.
	TimeRatio float64

	// FrequencyShift is the multiplicative pitch-shift factor, applied
	// independently of TimeRatio. 2.0 raises pitch by one octave.
	FrequencyShift float64

	// Options is the tagged option set. The zero value selects
	// DefaultOptions-like behaviour except that PeakLock and Softening
	// are off; prefer DefaultOptions or CrispnessProfile.
	Options Options
}

// Common errors returned by the stretcher.
var (
	// ErrInvalidConfig indicates invalid configuration parameters.
	ErrInvalidConfig = errors.New("invalid stretcher configuration")

	// ErrProtocol indicates a violation of the engine calling protocol,
	// such as retrieving more frames than reported available or studying
	// after processing has begun.
	ErrProtocol = engine.ErrProtocol
)

func errInvalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return errInvalidf("sample rate must be positive")
	}

	if c.Channels < 1 {
		return errInvalidf("channels must be at least 1")
	}

	if c.Channels > maxChannels {
		return errInvalidf("too many channels (max %d)", maxChannels)
	}

	if c.TimeRatio < minRatioFactor || c.TimeRatio > maxRatioFactor {
		return errInvalidf("time ratio out of range (%v to %v)", minRatioFactor, maxRatioFactor)
	}

	if c.FrequencyShift < minRatioFactor || c.FrequencyShift > maxRatioFactor {
		return errInvalidf("frequency shift out of range (%v to %v)", minRatioFactor, maxRatioFactor)
	}

	return c.Options.Validate()
}

// SemitonesToFrequencyShift converts a pitch shift in semitones to the
// equivalent multiplicative frequency shift: 2^(semitones/12).
func SemitonesToFrequencyShift(semitones float64) float64 {
	return math.Pow(2.0, semitones/semitonesPerOctave)
}

// New creates a stretcher with the specified configuration. Realtime mode
// forces precise stretching and sequential processing as documented on
// ModeRealtime.
func New(cfg *Config) (Stretcher, error) {
	if cfg == nil {
		return nil, errInvalidf("config is nil")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return engine.NewVocoder(settingsFor(cfg))
}

// settingsFor translates the public configuration into engine settings.
// The engine package keeps its own types so that it cannot import this
// package (would create an import cycle).
func settingsFor(cfg *Config) engine.Settings {
	opts := cfg.Options

	set := engine.Settings{
		SampleRate:     cfg.SampleRate,
		Channels:       cfg.Channels,
		TimeRatio:      cfg.TimeRatio,
		FrequencyShift: cfg.FrequencyShift,
		Realtime:       opts.Mode == ModeRealtime,
		Precise:        opts.Precise || opts.Mode == ModeRealtime,
		PeakLock:       opts.PeakLock,
		Softening:      opts.Softening,
		Threshold0:     opts.Threshold0,
		Threshold1:     opts.Threshold1,
		Threshold2:     opts.Threshold2,
	}

	switch opts.Transients {
	case TransientsMixed:
		set.Transients = engine.TransientsMixed
	case TransientsSmooth:
		set.Transients = engine.TransientsSmooth
	default:
		set.Transients = engine.TransientsCrisp
	}

	switch opts.Window {
	case WindowLong:
		set.WindowSize = engine.WindowSizeLong
	case WindowShort:
		set.WindowSize = engine.WindowSizeShort
	default:
		set.WindowSize = engine.WindowSizeStandard
	}

	switch {
	case opts.Mode == ModeRealtime || opts.Threading == ThreadingNever:
		set.Parallel = engine.ParallelNever
	case opts.Threading == ThreadingAlways:
		set.Parallel = engine.ParallelAlways
	default:
		set.Parallel = engine.ParallelAuto
	}

	return set
}
