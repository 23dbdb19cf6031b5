// Package stretch provides streaming audio time-stretching and
// pitch-shifting in pure Go.
//
// The package exposes a block-oriented [Stretcher] engine modeled on the
// classic phase-vocoder workflow: feed fixed-size blocks of multi-channel
// audio in, poll for ready output, retrieve it, and drain whatever the
// engine still holds once input is exhausted.
//
// # Features
//
//   - Independent time-ratio and frequency-shift control
//   - Offline two-pass operation with a preliminary study pass for
//     transient calibration, or single-pass realtime operation
//   - Named "crispness" profiles covering the useful option combinations
//   - Optional per-channel parallel processing for multichannel audio
//   - Pure Go implementation with no CGO dependencies
//
// # Quick Start
//
// For offline file conversion use the stretch-wav command. For library use:
//
//	cfg := &stretch.Config{
//	    SampleRate:     44100,
//	    Channels:       2,
//	    TimeRatio:      1.5,
//	    FrequencyShift: 1.0,
//	    Options:        stretch.CrispnessProfile(stretch.CrispnessDefault),
//	}
//	s, err := stretch.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Feed blocks, retrieving output as it becomes ready.
//	for each input block {
//	    err := s.Process(blocks, frames, final)
//	    for avail := s.Available(); avail > 0; avail = s.Available() {
//	        out := allocateBlocks(channels, avail)
//	        s.Retrieve(out, avail)
//	        writeOutput(out, avail)
//	    }
//	}
//
//	// Drain: Available reports a negative count once the engine is done.
//
// # Two-Pass Operation
//
// In offline mode the engine accepts a study pass before processing: the
// whole input is read once and handed to [Stretcher.Study] block by block,
// letting the engine build a global transient profile before any output is
// produced. Realtime mode skips the study pass entirely; calling Study on a
// realtime engine is a protocol error.
//
// # Crispness Profiles
//
// Rather than toggling individual options, most callers should pick one of
// the [Crispness] profiles, which bundle transient handling, phase locking
// and window length into combinations known to work well together:
//
//   - [CrispnessMushy]: smooth transients, free phases, long window
//   - [CrispnessSmooth]: smooth transients, free phases
//   - [CrispnessMixture]: balanced multitimbral mixture
//   - [CrispnessPercussive]: unpitched percussion with stable notes
//   - [CrispnessDefault]: crisp monophonic instrumental (the default)
//   - [CrispnessDrums]: unpitched solo percussion, short window
//
// # Thread Safety
//
// A [Stretcher] serves exactly one conversion job and must not be shared
// across concurrent jobs. All methods on one instance must be serialized by
// the caller; internal parallelism (the Threading option) is invisible to
// the caller except through timing.
package stretch
