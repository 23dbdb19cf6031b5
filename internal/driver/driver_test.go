package driver

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memInput serves interleaved samples from memory. A nonzero declared
// value overstates TotalFrames relative to the actual stream length.
type memInput struct {
	channels int
	rate     int
	total    int64
	declared int64
	data     []float64
	pos      int64
	seeks    int
	closes   int
}

func newMemInput(channels int, totalFrames int64) *memInput {
	data := make([]float64, totalFrames*int64(channels))
	for i := range data {
		data[i] = 0.5
	}
	return &memInput{channels: channels, rate: 44100, total: totalFrames, data: data}
}

func (m *memInput) Channels() int   { return m.channels }
func (m *memInput) SampleRate() int { return m.rate }

func (m *memInput) TotalFrames() int64 {
	if m.declared > 0 {
		return m.declared
	}
	return m.total
}

func (m *memInput) ReadBlock(dst []float64, frames int) (int, error) {
	remaining := m.total - m.pos
	if remaining <= 0 {
		return 0, nil
	}
	n := int64(frames)
	if n > remaining {
		n = remaining
	}
	copy(dst, m.data[m.pos*int64(m.channels):(m.pos+n)*int64(m.channels)])
	m.pos += n
	return int(n), nil
}

func (m *memInput) Seek(frame int64) error {
	m.seeks++
	m.pos = frame
	return nil
}

func (m *memInput) Close() error {
	m.closes++
	return nil
}

// memOutput accumulates written frames.
type memOutput struct {
	channels int
	frames   int64
	writes   []int
	samples  []float64
	closes   int
}

func (m *memOutput) WriteBlock(src []float64, frames int) error {
	m.frames += int64(frames)
	m.writes = append(m.writes, frames)
	m.samples = append(m.samples, src[:frames*m.channels]...)
	return nil
}

func (m *memOutput) Close() error {
	m.closes++
	return nil
}

// fakeEngine is a scripted engine test double. With availScript unset it
// behaves like an instantaneous stretcher: every processed block makes
// round(n*ratio) frames available immediately. With availScript set,
// Available pops scripted values once the final block has been processed,
// holding the last value forever.
type fakeEngine struct {
	channels int
	ratio    float64

	studyFrames   []int
	studyFinals   []bool
	processFrames []int
	processFinals []bool
	retrieves     []int
	resets        int
	expected      int64

	pending     int
	finalSeen   bool
	studyClosed bool

	availScript []int
	scriptPos   int
}

func (f *fakeEngine) Study(blocks [][]float64, frames int, final bool) error {
	if f.studyClosed {
		return errors.New("study after processing began")
	}
	if len(blocks) != f.channels {
		return errors.New("wrong channel count")
	}
	f.studyFrames = append(f.studyFrames, frames)
	f.studyFinals = append(f.studyFinals, final)
	return nil
}

func (f *fakeEngine) Process(blocks [][]float64, frames int, final bool) error {
	f.studyClosed = true
	if len(blocks) != f.channels {
		return errors.New("wrong channel count")
	}
	f.processFrames = append(f.processFrames, frames)
	f.processFinals = append(f.processFinals, final)
	if f.availScript == nil {
		f.pending += int(math.Round(float64(frames) * f.ratio))
	}
	if final {
		f.finalSeen = true
	}
	return nil
}

func (f *fakeEngine) Available() int {
	if f.availScript != nil {
		if !f.finalSeen {
			return 0
		}
		v := f.availScript[f.scriptPos]
		if f.scriptPos < len(f.availScript)-1 {
			f.scriptPos++
		}
		return v
	}

	if f.pending > 0 {
		return f.pending
	}
	if f.finalSeen {
		return -1
	}
	return 0
}

func (f *fakeEngine) Retrieve(blocks [][]float64, frames int) (int, error) {
	if f.availScript == nil && frames > f.pending {
		return 0, errors.New("retrieve beyond available")
	}
	for ch := range blocks {
		for i := 0; i < frames; i++ {
			blocks[ch][i] = 0.25
		}
	}
	if f.availScript == nil {
		f.pending -= frames
	}
	f.retrieves = append(f.retrieves, frames)
	return frames, nil
}

func (f *fakeEngine) SetExpectedInputDuration(frames int64) { f.expected = frames }
func (f *fakeEngine) Reset()                                { f.resets++ }

func TestRunOffline(t *testing.T) {
	const totalFrames = 44100

	engine := &fakeEngine{channels: 2, ratio: 2.0}
	in := newMemInput(2, totalFrames)
	out := &memOutput{channels: 2}

	d := New(engine, Config{BlockSize: 1024, TimeRatio: 2.0})
	summary, err := d.Run(in, out)
	require.NoError(t, err)

	assert.Equal(t, int64(totalFrames), summary.FramesIn)
	assert.Equal(t, int64(2*totalFrames), summary.FramesOut)
	assert.Equal(t, int64(2*totalFrames), summary.IdealOut)
	assert.Equal(t, int64(0), summary.FrameError)
	assert.InDelta(t, 2.0, summary.Ratio, 1e-12)

	assert.Equal(t, int64(totalFrames), engine.expected)
	assert.Equal(t, out.frames, summary.FramesOut)

	assert.Equal(t, 1, in.closes)
	assert.Equal(t, 1, out.closes)
	assert.Equal(t, 1, in.seeks, "study pass rewinds the input once")
}

func TestRunFinalFlagOncePerPass(t *testing.T) {
	tests := []struct {
		name        string
		totalFrames int64
		wantBlocks  int
		wantLast    int
	}{
		{"short_tail", 44100, 44, 68},
		{"exact_multiple", 4096, 4, 1024},
		{"single_block", 1024, 1, 1024},
		{"below_one_block", 100, 1, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{channels: 1, ratio: 1.0}
			in := newMemInput(1, tt.totalFrames)
			out := &memOutput{channels: 1}

			d := New(engine, Config{BlockSize: 1024, TimeRatio: 1.0})
			_, err := d.Run(in, out)
			require.NoError(t, err)

			for _, finals := range [][]bool{engine.studyFinals, engine.processFinals} {
				require.Len(t, finals, tt.wantBlocks)
				for i, final := range finals {
					assert.Equal(t, i == len(finals)-1, final, "only the last block is final")
				}
			}

			require.Len(t, engine.processFrames, tt.wantBlocks)
			assert.Equal(t, tt.wantLast, engine.processFrames[tt.wantBlocks-1])
		})
	}
}

func TestRunStreamEndsBeforeDeclaredTotal(t *testing.T) {
	// The header promises 4096 frames but the stream ends after 1024.
	// The final flag must still reach the engine so the drain loop can
	// terminate.
	engine := &fakeEngine{channels: 1, ratio: 1.0}
	in := newMemInput(1, 1024)
	in.declared = 4096
	out := &memOutput{channels: 1}

	d := New(engine, Config{BlockSize: 1024, TimeRatio: 1.0})
	summary, err := d.Run(in, out)
	require.NoError(t, err)

	require.NotEmpty(t, engine.processFinals)
	assert.True(t, engine.processFinals[len(engine.processFinals)-1],
		"short stream still delivers the final flag")
	assert.True(t, engine.studyFinals[len(engine.studyFinals)-1])
	assert.Equal(t, int64(1024), summary.FramesIn)
	assert.Equal(t, int64(1024), summary.FramesOut)
}

func TestRunEmptyStream(t *testing.T) {
	engine := &fakeEngine{channels: 1, ratio: 2.0}
	in := newMemInput(1, 0)
	in.declared = 4096
	out := &memOutput{channels: 1}

	d := New(engine, Config{BlockSize: 1024, TimeRatio: 2.0})
	summary, err := d.Run(in, out)
	require.NoError(t, err)

	require.Equal(t, []bool{true}, engine.studyFinals)
	require.Equal(t, []bool{true}, engine.processFinals)
	assert.Equal(t, []int{0}, engine.processFrames)
	assert.Equal(t, int64(0), summary.FramesIn)
	assert.Equal(t, int64(0), summary.FramesOut)
	assert.Zero(t, summary.Ratio)
}

func TestRunRealtimeSkipsStudy(t *testing.T) {
	engine := &fakeEngine{channels: 2, ratio: 1.5}
	in := newMemInput(2, 4096)
	out := &memOutput{channels: 2}

	d := New(engine, Config{BlockSize: 1024, TimeRatio: 1.5, Realtime: true})
	summary, err := d.Run(in, out)
	require.NoError(t, err)

	assert.Empty(t, engine.studyFrames, "realtime mode never studies")
	assert.Equal(t, 0, in.seeks, "no rewind without a study pass")
	assert.Equal(t, int64(6144), summary.FramesOut)
}

func TestRunDrainBackoff(t *testing.T) {
	// One input block; the poll after the final block consumes the leading
	// scripted zero, then the drain loop sees zero twice (sleeping each
	// time), retrieves five frames, and stops at the negative count.
	engine := &fakeEngine{
		channels:    1,
		availScript: []int{0, 0, 0, 5, -1},
	}
	in := newMemInput(1, 1024)
	out := &memOutput{channels: 1}

	var slept []time.Duration
	d := New(engine, Config{
		BlockSize: 1024,
		TimeRatio: 1.0,
		Sleep:     func(dur time.Duration) { slept = append(slept, dur) },
	})

	summary, err := d.Run(in, out)
	require.NoError(t, err)

	require.Len(t, slept, 2)
	for _, dur := range slept {
		assert.Equal(t, defaultDrainBackoff, dur)
	}
	assert.Equal(t, []int{5}, engine.retrieves)
	assert.Equal(t, int64(5), summary.FramesOut)
	assert.Equal(t, 1, out.closes)
}

func TestRunOutputSamplesClipped(t *testing.T) {
	engine := &fakeEngine{channels: 1, ratio: 1.0}
	in := newMemInput(1, 512)
	out := &memOutput{channels: 1}

	d := New(engine, Config{BlockSize: 512, TimeRatio: 1.0})
	_, err := d.Run(in, out)
	require.NoError(t, err)

	require.NotEmpty(t, out.samples)
	for i, s := range out.samples {
		require.GreaterOrEqual(t, s, -1.0, "sample %d", i)
		require.LessOrEqual(t, s, 1.0, "sample %d", i)
	}
}

func TestNewDefaults(t *testing.T) {
	d := New(&fakeEngine{channels: 1, ratio: 1.0}, Config{})

	assert.Equal(t, defaultBlockSize, d.cfg.BlockSize)
	assert.Equal(t, defaultDrainBackoff, d.cfg.DrainBackoff)
	assert.NotNil(t, d.cfg.Sleep)
	assert.NotNil(t, d.cfg.Now)
	assert.NotNil(t, d.log)
}
