package engine

import (
	"math"
	"math/cmplx"

	"github.com/tphakala/simd/f64"
)

// processFrame runs one analysis/resynthesis cycle for a channel: window,
// forward FFT, phase propagation (with transient resets and peak locking),
// inverse FFT, overlap-add, and emission of one synthesis hop.
func (v *Vocoder) processFrame(c *channel) {
	c.in.PeekInto(c.frame)
	for i, w := range v.window {
		c.frame[i] *= w
	}

	transient := false
	if v.set.Transients != TransientsSmooth {
		energy := f64.DotProduct(c.frame, c.frame)
		if v.profile != nil && v.profile.calibrated {
			transient = v.profile.transientAt(c.frameIndex)
		} else {
			transient = c.detector.detect(energy)
		}
	}

	c.fft.Coefficients(c.spectrum, c.frame)
	for k, coeff := range c.spectrum {
		c.mag[k] = cmplx.Abs(coeff)
		c.anaPhase[k] = cmplx.Phase(coeff)
	}

	v.propagatePhase(c, transient)
	if v.set.PeakLock {
		v.lockPeaks(c)
	}

	for k := range c.spectrum {
		c.spectrum[k] = cmplx.Rect(c.mag[k], c.phaseSum[k])
	}
	c.fft.Sequence(c.synth, c.spectrum)

	for i, w := range v.window {
		c.synth[i] *= w
	}
	f64.Scale(c.synth, c.synth, v.synthScale)

	for i, s := range c.synth {
		c.accum[i] += s
	}

	copy(c.prevPhase, c.anaPhase)

	hop := v.hsRound
	if v.set.Precise {
		c.hopAcc += v.hsFloat
		hop = int(c.hopAcc)
		c.hopAcc -= float64(hop)
	}
	if hop < 1 {
		hop = 1
	}

	v.emit(c, c.accum[:hop])
	copy(c.accum, c.accum[hop:])
	tail := c.accum[len(c.accum)-hop:]
	for i := range tail {
		tail[i] = 0
	}

	c.in.Discard(v.hop)
	c.frameIndex++
}

// propagatePhase advances the accumulated synthesis phase of every bin by
// its estimated true frequency. At a transient, the affected bins snap back
// to the analysis phase instead: the whole spectrum above the bass bound in
// crisp mode, only the extreme frequencies in mixed mode. Bins below the
// bass bound always keep phase continuity.
func (v *Vocoder) propagatePhase(c *channel, transient bool) {
	resetFrom := -1
	if transient {
		switch v.set.Transients {
		case TransientsCrisp:
			resetFrom = v.thresh0Bin
		case TransientsMixed:
			resetFrom = v.thresh2Bin
		}
	}

	omegaStep := 2.0 * math.Pi / float64(v.fftSize)
	hopF := float64(v.hop)

	for k := range c.phaseSum {
		if resetFrom >= 0 && k >= resetFrom {
			c.phaseSum[k] = c.anaPhase[k]
			continue
		}

		omega := omegaStep * float64(k)
		delta := princarg(c.anaPhase[k] - c.prevPhase[k] - omega*hopF)
		trueFreq := omega + delta/hopF
		c.phaseSum[k] = princarg(c.phaseSum[k] + v.hsFloat*trueFreq)
	}
}

// lockPeaks re-couples the phase of non-peak bins to their nearest spectral
// peak, preserving the vertical phase coherence that free propagation
// destroys. Softening blends the locked and free phases once the stretch
// factor is large enough that hard locking smears.
func (v *Vocoder) lockPeaks(c *channel) {
	weight := 1.0
	if v.set.Softening && (v.stretch > softeningRatio || v.stretch < 1.0/softeningRatio) {
		weight = softenedLockWeight
	}

	peaks := c.peaks[:0]
	for k := 1; k+1 < len(c.mag); k++ {
		if c.mag[k] > peakMagnitudeFloor && c.mag[k] > c.mag[k-1] && c.mag[k] >= c.mag[k+1] {
			peaks = append(peaks, k)
		}
	}
	c.peaks = peaks

	if len(peaks) == 0 {
		return
	}

	pi := 0
	for k := v.thresh1Bin; k < len(c.phaseSum); k++ {
		// Region boundaries sit midway between adjacent peaks.
		for pi+1 < len(peaks) && k > (peaks[pi]+peaks[pi+1])/2 {
			pi++
		}
		p := peaks[pi]
		if k == p {
			continue
		}

		locked := c.phaseSum[p] + (c.anaPhase[k] - c.anaPhase[p])
		c.phaseSum[k] = princarg(weight*locked + (1.0-weight)*c.phaseSum[k])
	}
}

// emit pushes one hop of stretched samples towards the output FIFO,
// applying latency compensation, the frequency-shift resampling stage, and
// the ideal-length cap once the final block has been seen.
func (v *Vocoder) emit(c *channel, stretched []float64) {
	if c.skip > 0 {
		if int64(len(stretched)) <= c.skip {
			c.skip -= int64(len(stretched))
			return
		}
		stretched = stretched[c.skip:]
		c.skip = 0
	}

	out := stretched
	if c.shifter != nil {
		c.shiftBuf = c.shifter.process(c.shiftBuf[:0], stretched)
		out = c.shiftBuf
	}

	if v.finalSeen {
		remain := v.targetOut - c.emitted
		if remain <= 0 {
			return
		}
		if int64(len(out)) > remain {
			out = out[:remain]
		}
	}

	c.out.Write(out)
	c.emitted += int64(len(out))
}

// princarg wraps a phase to the principal interval [-pi, pi).
func princarg(phase float64) float64 {
	wrapped := math.Mod(phase+math.Pi, 2.0*math.Pi)
	if wrapped < 0 {
		wrapped += 2.0 * math.Pi
	}
	return wrapped - math.Pi
}
