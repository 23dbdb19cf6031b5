package engine

// studyProfile is the global transient profile built by the offline study
// pass. It records the windowed energy of every analysis hop over the full
// input, then calibrates an onset threshold from the whole-file statistics.
// The single-pass online detector has to guess a threshold; the profile
// does not.
type studyProfile struct {
	energies   []float64
	onsets     map[int]bool
	calibrated bool
}

func newStudyProfile(expectedFrames int64, hop int) *studyProfile {
	capacity := 0
	if expectedFrames > 0 {
		capacity = int(expectedFrames/int64(hop)) + 1
	}

	return &studyProfile{
		energies: make([]float64, 0, capacity),
		onsets:   make(map[int]bool),
	}
}

// add records the windowed energy of one analysis frame.
func (p *studyProfile) add(energy float64) {
	p.energies = append(p.energies, energy)
}

// finish calibrates the onset threshold and marks every frame whose energy
// rise exceeds it. Called once, when the study pass has seen the final block.
func (p *studyProfile) finish() {
	if len(p.energies) < 2 {
		p.calibrated = true
		return
	}

	var fluxSum float64
	count := 0
	for i := 1; i < len(p.energies); i++ {
		rise := p.energies[i] - p.energies[i-1]
		if rise > 0 {
			fluxSum += rise
			count++
		}
	}

	if count == 0 {
		p.calibrated = true
		return
	}

	thresholdRise := fluxFactor * fluxSum / float64(count)
	for i := 1; i < len(p.energies); i++ {
		rise := p.energies[i] - p.energies[i-1]
		if rise > thresholdRise && p.energies[i] > energyFloor {
			p.onsets[i] = true
		}
	}

	p.calibrated = true
}

// transientAt reports whether the calibrated profile marks frame index as
// an onset.
func (p *studyProfile) transientAt(index int) bool {
	return p.calibrated && p.onsets[index]
}

// onlineDetector is the single-pass fallback used in realtime mode or when
// no study pass was performed. It compares each frame's energy against a
// running mean of recent energy rises.
type onlineDetector struct {
	prevEnergy float64
	meanFlux   float64
	primed     bool
}

// detect reports whether the energy step from the previous frame looks like
// an onset, updating the running statistics.
func (d *onlineDetector) detect(energy float64) bool {
	rise := energy - d.prevEnergy
	d.prevEnergy = energy

	if !d.primed {
		d.primed = true
		d.meanFlux = rise
		return false
	}

	onset := rise > fluxFactor*d.meanFlux && energy > energyFloor

	// Exponential running mean of positive rises.
	if rise > 0 {
		d.meanFlux = 0.9*d.meanFlux + 0.1*rise
	}

	return onset
}

func (d *onlineDetector) reset() {
	d.prevEnergy = 0
	d.meanFlux = 0
	d.primed = false
}
