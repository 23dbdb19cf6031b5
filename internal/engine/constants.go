package engine

// Analysis parameters
const (
	// Analysis hop as a fraction of the window (75% overlap).
	hopDivisor = 4

	// Default frequency thresholds in Hz. Threshold0 bounds the bass
	// region excluded from phase resets, Threshold1 is the lower bound
	// for peak locking, Threshold2 marks the extreme-frequency region
	// used by band-limited transient handling.
	defaultThreshold0 = 600.0
	defaultThreshold1 = 1200.0
	defaultThreshold2 = 12000.0
)

// Transient detection parameters
const (
	// An energy rise above fluxFactor times the calibrated mean flux
	// counts as an onset.
	fluxFactor = 2.0

	// Frames quieter than this windowed energy never count as onsets.
	energyFloor = 1e-6
)

// Window parameters
const (
	// Mean of the squared Hann window, used for overlap-add gain
	// compensation.
	hannSquaredMean = 0.375
)

// Phase handling parameters
const (
	// Softening reduces peak-lock weight once the internal stretch
	// factor leaves [1/softeningRatio, softeningRatio].
	softeningRatio = 2.0

	// Peak-lock blend weight applied when softening engages.
	softenedLockWeight = 0.5

	// Magnitudes below this are treated as silence for peak picking.
	peakMagnitudeFloor = 1e-9
)

// Buffer sizing
const (
	// Initial FIFO capacity in windows when no duration hint is given.
	fifoInitialWindows = 4
)
