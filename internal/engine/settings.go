// Package engine implements the phase-vocoder time/pitch transform engine.
package engine

import (
	"errors"
	"fmt"
)

// TransientMode controls phase resynchronisation at transients.
type TransientMode int

const (
	// TransientsCrisp resets phase across the full spectrum at onsets.
	TransientsCrisp TransientMode = iota

	// TransientsMixed resets phase only at extreme frequencies.
	TransientsMixed

	// TransientsSmooth never resets phase.
	TransientsSmooth
)

// WindowSize is the analysis/synthesis window length in samples.
type WindowSize int

// Supported window lengths. Power-of-2 sizes keep the FFT fast.
const (
	WindowSizeShort    WindowSize = 1024
	WindowSizeStandard WindowSize = 2048
	WindowSizeLong     WindowSize = 4096
)

// ParallelMode controls per-channel goroutine use inside the engine.
type ParallelMode int

const (
	// ParallelAuto parallelises multichannel work when multiple CPUs
	// are available.
	ParallelAuto ParallelMode = iota

	// ParallelNever forces sequential channel processing.
	ParallelNever

	// ParallelAlways parallelises whenever there is more than one channel.
	ParallelAlways
)

// Settings is the engine configuration, fixed at construction.
//
// NOTE: These types mirror the public option set in the root package.
// They are duplicated because internal packages cannot import the main
// package (would create an import cycle).
type Settings struct {
	SampleRate     int
	Channels       int
	TimeRatio      float64
	FrequencyShift float64

	Realtime   bool
	Precise    bool
	Transients TransientMode
	PeakLock   bool
	Softening  bool
	WindowSize WindowSize
	Parallel   ParallelMode

	// Frequency thresholds in Hz partitioning the spectrum for phase
	// handling. Zero selects the engine default.
	Threshold0 float64
	Threshold1 float64
	Threshold2 float64
}

// ErrProtocol indicates a violation of the engine calling protocol, such as
// retrieving more frames than reported available, or studying after
// processing has begun.
var ErrProtocol = errors.New("engine protocol violation")

func protocolErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrProtocol, fmt.Sprintf(format, args...))
}

// validate performs the engine-side sanity checks. The public package
// validates ranges; this guards direct internal construction.
func (s *Settings) validate() error {
	if s.SampleRate <= 0 {
		return fmt.Errorf("engine: sample rate must be positive, got %d", s.SampleRate)
	}

	if s.Channels < 1 {
		return fmt.Errorf("engine: channels must be at least 1, got %d", s.Channels)
	}

	if s.TimeRatio <= 0 || s.FrequencyShift <= 0 {
		return fmt.Errorf("engine: ratios must be positive")
	}

	switch s.WindowSize {
	case WindowSizeShort, WindowSizeStandard, WindowSizeLong, 0:
	default:
		return fmt.Errorf("engine: unsupported window size %d", s.WindowSize)
	}

	return nil
}

// threshold returns the configured value, or def when unset.
func threshold(configured, def float64) float64 {
	if configured > 0 {
		return configured
	}
	return def
}
