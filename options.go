package stretch

// Mode selects between offline two-pass and realtime single-pass operation.
type Mode int

const (
	// ModeOffline enables the two-pass workflow: a study pass over the
	// whole input followed by the processing pass. Best quality.
	ModeOffline Mode = iota

	// ModeRealtime processes in a single pass with no study phase.
	// Implies precise stretching and disables extra threads.
	ModeRealtime
)

// Transients controls phase resynchronisation at transients.
type Transients int

const (
	// TransientsCrisp resynchronises phase across all bins at detected
	// transients. The default; best for percussive material.
	TransientsCrisp Transients = iota

	// TransientsMixed band-limits phase resync to extreme frequencies.
	TransientsMixed

	// TransientsSmooth disables transient resynchronisation entirely.
	TransientsSmooth
)

// Window selects the processing window length.
type Window int

const (
	// WindowStandard is the default window length.
	WindowStandard Window = iota

	// WindowLong uses a longer window for smoother, less responsive output.
	WindowLong

	// WindowShort uses a shorter window for better transient response.
	WindowShort
)

// Threading controls the engine's internal use of per-channel goroutines.
type Threading int

const (
	// ThreadingAuto parallelises across channels when it is likely to help.
	ThreadingAuto Threading = iota

	// ThreadingNever forces sequential processing.
	ThreadingNever

	// ThreadingAlways parallelises whenever there is more than one channel.
	ThreadingAlways
)

// Options is the tagged option set fixed at engine construction.
// The zero value is not the default; use DefaultOptions or a
// crispness profile.
type Options struct {
	// Mode selects offline two-pass or realtime single-pass operation.
	Mode Mode

	// Precise aims for minimal time distortion. Implied by ModeRealtime.
	Precise bool

	// Transients controls phase resynchronisation at transients.
	Transients Transients

	// PeakLock enables phase locking to spectral peaks.
	PeakLock bool

	// Softening relaxes phase locking at large stretch ratios.
	Softening bool

	// Window selects the processing window length.
	Window Window

	// Threading controls internal per-channel parallelism.
	Threading Threading

	// Threshold0, Threshold1 and Threshold2 override the engine's
	// internal frequency thresholds, in Hz. Zero leaves the engine
	// default in place; negative values are invalid.
	Threshold0 float64
	Threshold1 float64
	Threshold2 float64
}

// DefaultOptions returns the default option set: offline mode, crisp
// transients, peak locking and softening enabled, standard window,
// automatic threading.
func DefaultOptions() Options {
	return Options{
		Mode:       ModeOffline,
		Transients: TransientsCrisp,
		PeakLock:   true,
		Softening:  true,
		Window:     WindowStandard,
		Threading:  ThreadingAuto,
	}
}

// Crispness enumerates the named option profiles. Higher values favour
// transient clarity over smoothness.
type Crispness int

const (
	// CrispnessMushy: smooth transients, free phases, long window.
	CrispnessMushy Crispness = iota

	// CrispnessSmooth: smooth transients, free phases.
	CrispnessSmooth

	// CrispnessMixture: balanced multitimbral mixture.
	CrispnessMixture

	// CrispnessPercussive: unpitched percussion with stable notes.
	CrispnessPercussive

	// CrispnessDefault: crisp monophonic instrumental. The default profile.
	CrispnessDefault

	// CrispnessDrums: unpitched solo percussion, short window.
	CrispnessDrums
)

// String returns the profile's descriptive name.
func (c Crispness) String() string {
	switch c {
	case CrispnessMushy:
		return "Mushy"
	case CrispnessSmooth:
		return "Smooth"
	case CrispnessMixture:
		return "Balanced multitimbral mixture"
	case CrispnessPercussive:
		return "Unpitched percussion with stable notes"
	case CrispnessDefault:
		return "Crisp monophonic instrumental"
	case CrispnessDrums:
		return "Unpitched solo percussion"
	default:
		return "unknown"
	}
}

// CrispnessProfile returns the option combination for a named profile.
// Unknown values fall back to CrispnessDefault.
func CrispnessProfile(c Crispness) Options {
	opts := DefaultOptions()

	switch c {
	case CrispnessMushy:
		opts.Transients = TransientsSmooth
		opts.PeakLock = false
		opts.Window = WindowLong
	case CrispnessSmooth:
		opts.Transients = TransientsSmooth
		opts.PeakLock = false
	case CrispnessMixture:
		opts.Transients = TransientsSmooth
	case CrispnessPercussive:
		opts.Transients = TransientsMixed
	case CrispnessDefault:
		// Defaults as-is.
	case CrispnessDrums:
		opts.PeakLock = false
		opts.Window = WindowShort
	}

	return opts
}

// Validate checks the option set for consistency.
func (o *Options) Validate() error {
	if o.Mode != ModeOffline && o.Mode != ModeRealtime {
		return errInvalidf("unknown mode %d", o.Mode)
	}

	if o.Transients < TransientsCrisp || o.Transients > TransientsSmooth {
		return errInvalidf("unknown transient mode %d", o.Transients)
	}

	if o.Window < WindowStandard || o.Window > WindowShort {
		return errInvalidf("unknown window mode %d", o.Window)
	}

	if o.Threading < ThreadingAuto || o.Threading > ThreadingAlways {
		return errInvalidf("unknown threading mode %d", o.Threading)
	}

	for i, thresh := range []float64{o.Threshold0, o.Threshold1, o.Threshold2} {
		if thresh < 0 {
			return errInvalidf("frequency threshold %d must be positive, got %v", i, thresh)
		}
	}

	return nil
}
