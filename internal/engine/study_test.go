package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudyProfileMarksOnsets(t *testing.T) {
	p := newStudyProfile(0, 512)

	// Small energy wobble with one clear spike at index 5.
	for _, e := range []float64{1, 1.1, 1, 1.2, 1, 30, 1, 1.1} {
		p.add(e)
	}
	p.finish()

	require.True(t, p.calibrated)
	assert.True(t, p.transientAt(5))
	for _, i := range []int{0, 1, 2, 3, 4, 6, 7} {
		assert.False(t, p.transientAt(i), "index %d is not an onset", i)
	}
}

func TestStudyProfileNotCalibratedBeforeFinish(t *testing.T) {
	p := newStudyProfile(44100, 512)
	p.add(1)
	p.add(100)

	assert.False(t, p.transientAt(1), "no onsets before calibration")
}

func TestStudyProfileDegenerateInputs(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		p := newStudyProfile(0, 512)
		p.finish()
		assert.True(t, p.calibrated)
		assert.False(t, p.transientAt(0))
	})

	t.Run("monotone_decay", func(t *testing.T) {
		p := newStudyProfile(0, 512)
		for _, e := range []float64{5, 4, 3, 2, 1} {
			p.add(e)
		}
		p.finish()
		assert.True(t, p.calibrated)
		assert.Empty(t, p.onsets, "no positive flux, no onsets")
	})
}

func TestStudyProfileIgnoresSilence(t *testing.T) {
	p := newStudyProfile(0, 512)

	// Rises within the noise floor never count as onsets.
	for _, e := range []float64{0, 1e-9, 0, 1e-9, 0, 1e-7, 0} {
		p.add(e)
	}
	p.finish()

	assert.Empty(t, p.onsets)
}

func TestOnlineDetector(t *testing.T) {
	var d onlineDetector

	assert.False(t, d.detect(1.0), "first frame primes, never an onset")
	assert.False(t, d.detect(1.05), "small rise below the running mean")
	assert.True(t, d.detect(10.0), "large rise over the running mean")
}

func TestOnlineDetectorReset(t *testing.T) {
	var d onlineDetector
	d.detect(1.0)
	d.detect(5.0)

	d.reset()

	assert.False(t, d.primed)
	assert.Zero(t, d.prevEnergy)
	assert.Zero(t, d.meanFlux)
	assert.False(t, d.detect(3.0), "freshly reset detector primes again")
}
