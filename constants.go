package stretch

// Channel constants
const (
	maxChannels = 256 // Maximum supported channel count
)

// Stretch ratio limits
const (
	minRatioFactor = 1.0 / 256.0 // Minimum time ratio or frequency shift
	maxRatioFactor = 256.0       // Maximum time ratio or frequency shift
)

// Semitone conversion
const (
	semitonesPerOctave = 12.0
)
