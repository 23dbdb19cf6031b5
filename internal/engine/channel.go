package engine

import (
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/tphakala/go-audio-stretch/internal/pipeline"
)

// channel holds the per-channel vocoder state. Each channel owns its FIFOs
// and scratch buffers; during parallel processing exactly one goroutine
// touches a given channel.
type channel struct {
	in  *pipeline.FIFO
	out *pipeline.FIFO

	fft *fourier.FFT

	frame    []float64    // windowed analysis frame scratch
	synth    []float64    // resynthesis scratch
	spectrum []complex128 // frequency-domain scratch
	mag      []float64
	anaPhase []float64

	prevPhase []float64
	phaseSum  []float64
	peaks     []int

	accum  []float64 // overlap-add accumulator
	hopAcc float64   // fractional synthesis hop carry

	shifter  *shiftStage // nil when FrequencyShift == 1
	shiftBuf []float64

	detector   onlineDetector
	frameIndex int

	skip    int64 // latency samples still to drop, in stretched domain
	emitted int64 // samples delivered to out, post shift
}

func newChannel(fftSize, accumLen, fifoCapacity int, shift float64, skip int64) *channel {
	bins := fftSize/2 + 1

	c := &channel{
		in:  pipeline.NewFIFO(fifoCapacity),
		out: pipeline.NewFIFO(fifoCapacity),

		fft: fourier.NewFFT(fftSize),

		frame:    make([]float64, fftSize),
		synth:    make([]float64, fftSize),
		spectrum: make([]complex128, bins),
		mag:      make([]float64, bins),
		anaPhase: make([]float64, bins),

		prevPhase: make([]float64, bins),
		phaseSum:  make([]float64, bins),

		accum: make([]float64, accumLen),

		skip: skip,
	}

	if shift != 1.0 {
		c.shifter = newShiftStage(shift)
		c.shiftBuf = make([]float64, 0, accumLen*2)
	}

	return c
}

// reset returns the channel to its freshly constructed state.
func (c *channel) reset(skip int64) {
	c.in.Clear()
	c.out.Clear()

	for i := range c.prevPhase {
		c.prevPhase[i] = 0
		c.phaseSum[i] = 0
	}
	for i := range c.accum {
		c.accum[i] = 0
	}

	c.hopAcc = 0
	c.frameIndex = 0
	c.skip = skip
	c.emitted = 0
	c.detector.reset()

	if c.shifter != nil {
		c.shifter.reset()
	}
}
