package engine

import (
	"math"
)

// shiftStage resamples the stretched stream by 1/shift using 4-point cubic
// Hermite interpolation, converting surplus duration into a pitch change.
// Together with the vocoder's internal stretch factor of ratio*shift this
// yields an output of duration ratio and pitch shift.
type shiftStage struct {
	ratio   float64 // output samples per input sample (1/shift)
	phase   float64
	history [4]float64
}

// newShiftStage creates a resampling stage for the given frequency shift.
func newShiftStage(shift float64) *shiftStage {
	return &shiftStage{ratio: 1.0 / shift}
}

// process resamples input, appending to dst and returning the result.
func (s *shiftStage) process(dst, input []float64) []float64 {
	for _, sample := range input {
		s.history[3] = s.history[2]
		s.history[2] = s.history[1]
		s.history[1] = s.history[0]
		s.history[0] = sample

		for s.phase < 1.0 {
			dst = append(dst, s.interpolate(s.phase))
			s.phase += 1.0 / s.ratio
		}
		s.phase -= 1.0
	}

	return dst
}

// interpolate evaluates the cubic Hermite polynomial at fractional
// position x between history[2] and history[1].
func (s *shiftStage) interpolate(x float64) float64 {
	y0 := s.history[3]
	y1 := s.history[2]
	y2 := s.history[1]
	y3 := s.history[0]

	a := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	b := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	c := -0.5*y0 + 0.5*y2
	d := y1

	return ((a*x+b)*x+c)*x + d
}

// reset clears interpolation state.
func (s *shiftStage) reset() {
	s.phase = 0
	s.history = [4]float64{}
}

// expectedOutput returns the output count for n input samples, ignoring
// the interpolator's 2-sample history delay.
func (s *shiftStage) expectedOutput(n int) int {
	return int(math.Ceil(float64(n) * s.ratio))
}
