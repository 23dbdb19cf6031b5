package driver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	stretch "github.com/tphakala/go-audio-stretch"
)

// Config holds the driver's runtime knobs. The zero value gets sensible
// defaults from New.
type Config struct {
	// BlockSize is the input block length in frames. Default 1024.
	BlockSize int

	// TimeRatio is the target duration ratio, used for the ideal output
	// frame count in the summary diagnostics.
	TimeRatio float64

	// Realtime skips the study pass entirely.
	Realtime bool

	// Progress receives pass banners and percent updates. Nil is quiet.
	Progress io.Writer

	// Logger receives debug diagnostics. Nil discards.
	Logger *slog.Logger

	// DrainBackoff is the bounded sleep between empty drain polls.
	// Default 10ms.
	DrainBackoff time.Duration

	// Sleep and Now are injectable for tests. Defaults are time.Sleep
	// and time.Now.
	Sleep func(time.Duration)
	Now   func() time.Time
}

// Summary holds the end-of-job diagnostics. Informational only; it never
// influences control flow or exit status.
type Summary struct {
	FramesIn   int64
	FramesOut  int64
	Ratio      float64 // actual FramesOut / FramesIn
	IdealOut   int64   // round(FramesIn * TimeRatio)
	FrameError int64   // |IdealOut - FramesOut|
	Elapsed    time.Duration
	InPerSec   float64
	OutPerSec  float64
}

// defaultBlockSize is the input block length when the config leaves it
// unset.
const defaultBlockSize = 1024

// defaultDrainBackoff bounds the busy-poll in the drain phase.
const defaultDrainBackoff = 10 * time.Millisecond

// Driver orchestrates one conversion job: optional study pass, process
// pass, and drain loop against a single-use stretch engine. The driver is
// single-threaded and synchronous; its only suspension point is the
// bounded drain backoff.
type Driver struct {
	engine stretch.Stretcher
	cfg    Config
	log    *slog.Logger
}

// New creates a driver around an engine. The engine must be freshly
// constructed; a driver and its engine serve exactly one job.
func New(engine stretch.Stretcher, cfg Config) *Driver {
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = defaultBlockSize
	}
	if cfg.DrainBackoff <= 0 {
		cfg.DrainBackoff = defaultDrainBackoff
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Driver{engine: engine, cfg: cfg, log: log}
}

// Run executes the full pipeline and closes both collaborators before
// returning. Short reads and zero-length tail blocks terminate the input
// stream normally; there are no retries.
func (d *Driver) Run(in Input, out Output) (summary *Summary, err error) {
	defer func() {
		if cerr := in.Close(); err == nil {
			err = cerr
		}
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	start := d.cfg.Now()
	total := in.TotalFrames()
	channels := in.Channels()

	block := NewBlockBuffer(channels, d.cfg.BlockSize)
	interleaved := make([]float64, d.cfg.BlockSize*channels)
	progress := NewProgressReporter(total, d.cfg.Progress)

	d.engine.SetExpectedInputDuration(total)

	if !d.cfg.Realtime {
		if err := d.studyPass(in, block, interleaved, progress); err != nil {
			return nil, err
		}
	}

	countIn, countOut, err := d.processPass(in, out, block, interleaved, progress)
	if err != nil {
		return nil, err
	}
	progress.Line("    ")

	drained, err := d.drain(out, channels)
	if err != nil {
		return nil, err
	}
	countOut += drained

	elapsed := d.cfg.Now().Sub(start)
	summary = &Summary{
		FramesIn:  countIn,
		FramesOut: countOut,
		IdealOut:  int64(math.Round(float64(countIn) * d.cfg.TimeRatio)),
		Elapsed:   elapsed,
	}
	if countIn > 0 {
		summary.Ratio = float64(countOut) / float64(countIn)
	}
	summary.FrameError = summary.IdealOut - countOut
	if summary.FrameError < 0 {
		summary.FrameError = -summary.FrameError
	}
	if secs := elapsed.Seconds(); secs > 0 {
		summary.InPerSec = float64(countIn) / secs
		summary.OutPerSec = float64(countOut) / secs
	}

	d.log.Debug("conversion complete",
		slog.Int64("frames_in", summary.FramesIn),
		slog.Int64("frames_out", summary.FramesOut),
		slog.Int64("frame_error", summary.FrameError),
		slog.Duration("elapsed", summary.Elapsed))

	return summary, nil
}

// studyPass reads the whole input once, feeding every block to the
// engine's study operation, then rewinds the input for processing.
func (d *Driver) studyPass(in Input, block *BlockBuffer, interleaved []float64, progress *ProgressReporter) error {
	progress.StartPass(PassStudy, true)

	total := in.TotalFrames()
	blockSize := int64(d.cfg.BlockSize)

	var cursor int64
	finalSent := false
	for cursor < total {
		n, err := in.ReadBlock(interleaved, d.cfg.BlockSize)
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("driver: study read: %w", err)
		}
		if n <= 0 {
			break
		}

		if err := block.Deinterleave(interleaved, n); err != nil {
			return err
		}

		final := cursor+blockSize >= total
		if err := d.engine.Study(block.Data(), n, final); err != nil {
			return fmt.Errorf("driver: study: %w", err)
		}
		finalSent = finalSent || final

		progress.Report(cursor)
		cursor += blockSize
	}

	// The stream may end before the declared total (or be empty). The
	// engine still needs exactly one final block to finish calibration.
	if !finalSent {
		if err := block.Deinterleave(interleaved, 0); err != nil {
			return err
		}
		if err := d.engine.Study(block.Data(), 0, true); err != nil {
			return fmt.Errorf("driver: study: %w", err)
		}
	}

	progress.Line("Calculating profile...")

	if err := in.Seek(0); err != nil {
		return fmt.Errorf("driver: rewind after study: %w", err)
	}

	return nil
}

// processPass streams the input through the engine, retrieving and writing
// whatever output becomes ready after each block.
func (d *Driver) processPass(in Input, out Output, block *BlockBuffer, interleaved []float64, progress *ProgressReporter) (countIn, countOut int64, err error) {
	progress.StartPass(PassProcess, !d.cfg.Realtime)

	total := in.TotalFrames()
	blockSize := int64(d.cfg.BlockSize)
	channels := in.Channels()

	var cursor int64
	finalSent := false
	for cursor < total {
		n, err := in.ReadBlock(interleaved, d.cfg.BlockSize)
		if err != nil && !errors.Is(err, io.EOF) {
			return countIn, countOut, fmt.Errorf("driver: read: %w", err)
		}
		if n <= 0 {
			break
		}
		countIn += int64(n)

		if err := block.Deinterleave(interleaved, n); err != nil {
			return countIn, countOut, err
		}

		final := cursor+blockSize >= total
		if err := d.engine.Process(block.Data(), n, final); err != nil {
			return countIn, countOut, fmt.Errorf("driver: process: %w", err)
		}
		finalSent = finalSent || final

		wrote, err := d.retrieveReady(out, channels)
		if err != nil {
			return countIn, countOut, err
		}
		countOut += wrote

		progress.Report(cursor)
		cursor += blockSize
	}

	// A stream ending before the declared total must still flush the
	// engine, or the drain loop would poll an unflushed engine forever.
	if !finalSent {
		if err := block.Deinterleave(interleaved, 0); err != nil {
			return countIn, countOut, err
		}
		if err := d.engine.Process(block.Data(), 0, true); err != nil {
			return countIn, countOut, fmt.Errorf("driver: process: %w", err)
		}
		wrote, err := d.retrieveReady(out, channels)
		if err != nil {
			return countIn, countOut, err
		}
		countOut += wrote
	}

	return countIn, countOut, nil
}

// retrieveReady drains everything the engine reports available right now.
// A zero or negative count ends the loop; the drain phase owns waiting.
func (d *Driver) retrieveReady(out Output, channels int) (int64, error) {
	var written int64

	for {
		avail := d.engine.Available()
		d.log.Debug("engine poll", slog.Int("available", avail))
		if avail <= 0 {
			return written, nil
		}

		if err := d.writeRetrieved(out, channels, avail); err != nil {
			return written, err
		}
		written += int64(avail)
	}
}

// drain polls the engine after input exhaustion: positive counts are
// retrieved and written, zero means back off briefly and retry, negative
// means the engine is done.
func (d *Driver) drain(out Output, channels int) (int64, error) {
	var written int64

	for {
		avail := d.engine.Available()
		d.log.Debug("drain poll", slog.Int("available", avail))

		switch {
		case avail < 0:
			return written, nil
		case avail == 0:
			d.cfg.Sleep(d.cfg.DrainBackoff)
		default:
			if err := d.writeRetrieved(out, channels, avail); err != nil {
				return written, err
			}
			written += int64(avail)
		}
	}
}

// writeRetrieved pulls exactly avail frames out of the engine, clips and
// reinterleaves them, and hands them to the output collaborator. The block
// buffer lives only for this step.
func (d *Driver) writeRetrieved(out Output, channels, avail int) error {
	ob := NewBlockBuffer(channels, avail)
	if err := ob.SetFrames(avail); err != nil {
		return err
	}

	if _, err := d.engine.Retrieve(ob.Data(), avail); err != nil {
		return fmt.Errorf("driver: retrieve: %w", err)
	}

	buf := make([]float64, avail*channels)
	if _, err := ob.InterleaveClipped(buf); err != nil {
		return err
	}

	if err := out.WriteBlock(buf, avail); err != nil {
		return fmt.Errorf("driver: write: %w", err)
	}

	return nil
}
