package engine

import (
	"math"
	"runtime"
	"sync"

	"github.com/tphakala/simd/f64"

	"github.com/tphakala/go-audio-stretch/internal/pipeline"
)

// Vocoder is a streaming phase-vocoder time/pitch transform engine. It
// satisfies the Stretcher contract of the root package: feed blocks with
// Study and Process, poll Available, drain with Retrieve.
//
// Internally the vocoder stretches by TimeRatio*FrequencyShift and then
// resamples by 1/FrequencyShift, so the output has duration TimeRatio and
// pitch FrequencyShift relative to the input.
type Vocoder struct {
	set Settings

	fftSize int
	bins    int
	hop     int // analysis hop

	stretch    float64 // internal stretch factor
	hsFloat    float64 // nominal synthesis hop
	hsRound    int     // integer synthesis hop when not precise
	window     []float64
	synthScale float64

	thresh0Bin int
	thresh1Bin int
	thresh2Bin int

	channels []*channel
	parallel bool

	studyIn    *pipeline.FIFO
	studyFrame []float64
	studyMix   []float64
	profile    *studyProfile
	studied    bool

	processing bool
	finalSeen  bool
	flushed    bool

	expected  int64
	totalIn   int64
	targetOut int64
}

// NewVocoder creates an engine from the given settings.
func NewVocoder(set Settings) (*Vocoder, error) {
	if err := set.validate(); err != nil {
		return nil, err
	}

	if set.WindowSize == 0 {
		set.WindowSize = WindowSizeStandard
	}

	fftSize := int(set.WindowSize)
	hop := fftSize / hopDivisor
	stretch := set.TimeRatio * set.FrequencyShift
	hsFloat := float64(hop) * stretch

	v := &Vocoder{
		set:     set,
		fftSize: fftSize,
		bins:    fftSize/2 + 1,
		hop:     hop,
		stretch: stretch,
		hsFloat: hsFloat,
		hsRound: int(math.Round(hsFloat)),
		window:  hannWindow(fftSize),

		// Scale compensating the unnormalized inverse FFT and the
		// overlap-add gain of the squared window at the synthesis hop.
		synthScale: hsFloat / (hannSquaredMean * float64(fftSize) * float64(fftSize)),

		thresh0Bin: binForFrequency(threshold(set.Threshold0, defaultThreshold0), fftSize, set.SampleRate),
		thresh1Bin: binForFrequency(threshold(set.Threshold1, defaultThreshold1), fftSize, set.SampleRate),
		thresh2Bin: binForFrequency(threshold(set.Threshold2, defaultThreshold2), fftSize, set.SampleRate),

		studyIn:    pipeline.NewFIFO(fifoInitialWindows * fftSize),
		studyFrame: make([]float64, fftSize),
	}

	if v.hsRound < 1 {
		v.hsRound = 1
	}

	// Half a window of initial fade-in is dropped from the stretched
	// stream as latency compensation.
	skip := int64(fftSize / 2)
	accumLen := fftSize + int(hsFloat) + 2
	fifoCapacity := fifoInitialWindows * fftSize

	v.channels = make([]*channel, set.Channels)
	for ch := range v.channels {
		v.channels[ch] = newChannel(fftSize, accumLen, fifoCapacity, set.FrequencyShift, skip)
	}

	switch set.Parallel {
	case ParallelAlways:
		v.parallel = set.Channels > 1
	case ParallelNever:
		v.parallel = false
	default:
		v.parallel = set.Channels > 1 && runtime.NumCPU() > 1
	}

	return v, nil
}

// SetExpectedInputDuration hints the total input length in frames. Used to
// presize the study profile; purely advisory.
func (v *Vocoder) SetExpectedInputDuration(frames int64) {
	v.expected = frames
}

// Study feeds one block of the offline study pass. Blocks must arrive in
// original order; the last block carries final == true. The channels are
// mixed down and the windowed energy of every analysis hop is recorded, so
// that the transient threshold can be calibrated over the whole input
// before processing begins.
func (v *Vocoder) Study(blocks [][]float64, frames int, final bool) error {
	if v.set.Realtime {
		return protocolErr("study called on a realtime engine")
	}

	if v.processing {
		return protocolErr("study called after processing began")
	}

	if v.studied {
		return protocolErr("study pass already complete")
	}

	if err := v.checkBlocks(blocks, frames); err != nil {
		return err
	}

	if v.profile == nil {
		v.profile = newStudyProfile(v.expected, v.hop)
	}

	v.mixdown(blocks, frames)
	v.drainStudy()

	if final {
		v.studyIn.Write(make([]float64, v.fftSize))
		v.drainStudy()
		v.studyIn.Clear()
		v.profile.finish()
		v.studied = true
	}

	return nil
}

// mixdown averages the channels of one block into the study FIFO.
func (v *Vocoder) mixdown(blocks [][]float64, frames int) {
	if cap(v.studyMix) < frames {
		v.studyMix = make([]float64, frames)
	}
	mix := v.studyMix[:frames]

	scale := 1.0 / float64(v.set.Channels)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < v.set.Channels; ch++ {
			sum += blocks[ch][i]
		}
		mix[i] = sum * scale
	}

	v.studyIn.Write(mix)
}

// drainStudy consumes full windows from the study FIFO, recording windowed
// energies in the profile.
func (v *Vocoder) drainStudy() {
	for v.studyIn.Len() >= v.fftSize {
		v.studyIn.PeekInto(v.studyFrame)
		for i, w := range v.window {
			v.studyFrame[i] *= w
		}
		v.profile.add(f64.DotProduct(v.studyFrame, v.studyFrame))
		v.studyIn.Discard(v.hop)
	}
}

// Process feeds one input block for transformation. The last block of the
// pass carries final == true; a final flag on a full-size block is legal.
func (v *Vocoder) Process(blocks [][]float64, frames int, final bool) error {
	if v.flushed {
		return protocolErr("process called after the final block")
	}

	if err := v.checkBlocks(blocks, frames); err != nil {
		return err
	}

	v.processing = true

	for ch, c := range v.channels {
		c.in.Write(blocks[ch][:frames])
	}
	v.totalIn += int64(frames)

	if final {
		v.finalSeen = true
		v.targetOut = int64(math.Round(float64(v.totalIn) * v.set.TimeRatio))
	}

	v.runChannels(func(c *channel) {
		for c.in.Len() >= v.fftSize {
			v.processFrame(c)
		}
		if v.finalSeen {
			v.flushChannel(c)
		}
	})

	if v.finalSeen {
		v.flushed = true
	}

	return nil
}

// flushChannel pushes the remaining buffered input through the vocoder with
// silence padding, emits the accumulator tail, and tops the output up to
// the ideal frame count.
func (v *Vocoder) flushChannel(c *channel) {
	c.in.Write(make([]float64, v.fftSize))
	for c.in.Len() >= v.fftSize {
		v.processFrame(c)
	}
	c.in.Clear()

	v.emit(c, c.accum[:v.fftSize])
	for i := range c.accum {
		c.accum[i] = 0
	}

	if c.emitted < v.targetOut {
		c.out.Write(make([]float64, v.targetOut-c.emitted))
		c.emitted = v.targetOut
	}
}

// runChannels applies work to every channel, in parallel when the
// threading settings allow it.
func (v *Vocoder) runChannels(work func(*channel)) {
	if !v.parallel {
		for _, c := range v.channels {
			work(c)
		}
		return
	}

	var wg sync.WaitGroup
	for _, c := range v.channels {
		wg.Add(1)
		go func(c *channel) {
			defer wg.Done()
			work(c)
		}(c)
	}
	wg.Wait()
}

// Available returns the number of output frames ready on every channel.
// Once the final block has been fully processed and the buffered output
// consumed, the count turns negative: no more output will ever appear.
func (v *Vocoder) Available() int {
	avail := math.MaxInt
	for _, c := range v.channels {
		if n := c.out.Len(); n < avail {
			avail = n
		}
	}

	if avail == 0 && v.flushed {
		return -1
	}

	return avail
}

// Retrieve consumes exactly frames output frames into the caller's blocks.
func (v *Vocoder) Retrieve(blocks [][]float64, frames int) (int, error) {
	if err := v.checkBlocks(blocks, frames); err != nil {
		return 0, err
	}

	for _, c := range v.channels {
		if frames > c.out.Len() {
			return 0, protocolErr("retrieve of %d frames exceeds available %d", frames, c.out.Len())
		}
	}

	for ch, c := range v.channels {
		c.out.ReadInto(blocks[ch][:frames])
	}

	return frames, nil
}

// Reset returns the engine to its freshly constructed state.
func (v *Vocoder) Reset() {
	skip := int64(v.fftSize / 2)
	for _, c := range v.channels {
		c.reset(skip)
	}

	v.studyIn.Clear()
	v.profile = nil
	v.studied = false
	v.processing = false
	v.finalSeen = false
	v.flushed = false
	v.totalIn = 0
	v.targetOut = 0
}

// checkBlocks validates the caller-supplied block geometry.
func (v *Vocoder) checkBlocks(blocks [][]float64, frames int) error {
	if frames < 0 {
		return protocolErr("negative frame count %d", frames)
	}

	if len(blocks) < v.set.Channels {
		return protocolErr("got %d channel blocks, need %d", len(blocks), v.set.Channels)
	}

	for ch := 0; ch < v.set.Channels; ch++ {
		if len(blocks[ch]) < frames {
			return protocolErr("channel %d block holds %d frames, need %d", ch, len(blocks[ch]), frames)
		}
	}

	return nil
}

// hannWindow returns a periodic Hann window of length n.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(n)))
	}
	return w
}

// binForFrequency maps a frequency in Hz to its FFT bin index, clamped to
// the valid bin range.
func binForFrequency(hz float64, fftSize, sampleRate int) int {
	bin := int(hz * float64(fftSize) / float64(sampleRate))
	if bin < 0 {
		bin = 0
	}
	if max := fftSize / 2; bin > max {
		bin = max
	}
	return bin
}
