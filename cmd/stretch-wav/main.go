// Command stretch-wav time-stretches and pitch-shifts WAV audio files.
//
// Usage:
//
//	stretch-wav -time 2.0 input.wav output.wav          # Double the duration
//	stretch-wav -pitch 12 input.wav output.wav          # Up one octave, same duration
//	stretch-wav -tempo 0.8 -crisp 5 drums.wav out.wav   # Slow down percussive material
//	stretch-wav -realtime -time 1.5 input.wav out.wav   # Single-pass, no study phase
//
// At least one of -time, -tempo, -pitch or -frequency must be given. The
// offline default runs two passes over the input: a study pass that builds
// a transient profile, then the processing pass.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	stretch "github.com/tphakala/go-audio-stretch"
	"github.com/tphakala/go-audio-stretch/internal/driver"
	"github.com/tphakala/go-audio-stretch/internal/wavio"
)

// Exit codes: usage errors are distinct from file-open failures.
const (
	exitOK          = 0
	exitOpenFailure = 1
	exitUsage       = 2
)

const defaultBlockSize = 1024

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	cli, err := parseArgs(args, stderr)
	if err != nil || !cli.haveRatio {
		printUsage(stderr)
		return exitUsage
	}

	crisp := effectiveCrispness(cli)
	if !cli.quiet {
		fmt.Fprintf(stderr, "Using crispness level: %d (%s)\n", int(crisp), crisp)
	}

	in, err := wavio.OpenReader(cli.inPath)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: Failed to open input file %q: %v\n", cli.inPath, err)
		return exitOpenFailure
	}

	declared := wavio.DeclaredOutputFrames(in.TotalFrames(), cli.ratio)
	out, err := wavio.CreateWriter(cli.outPath, in.SampleRate(), in.BitDepth(), in.Channels(), declared)
	if err != nil {
		_ = in.Close()
		fmt.Fprintf(stderr, "ERROR: Failed to open output file %q for writing: %v\n", cli.outPath, err)
		return exitOpenFailure
	}

	engine, err := stretch.New(&stretch.Config{
		SampleRate:     in.SampleRate(),
		Channels:       in.Channels(),
		TimeRatio:      cli.ratio,
		FrequencyShift: effectiveFrequencyShift(cli),
		Options:        engineOptions(cli),
	})
	if err != nil {
		_ = in.Close()
		_ = out.Close()
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return exitUsage
	}

	var logger *slog.Logger
	if cli.debug > 0 {
		level := slog.LevelInfo
		if cli.debug > 1 {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	}

	var progress io.Writer
	if !cli.quiet {
		progress = stderr
	}

	drv := driver.New(engine, driver.Config{
		BlockSize: cli.blockSize,
		TimeRatio: cli.ratio,
		Realtime:  cli.realtime,
		Progress:  progress,
		Logger:    logger,
	})

	summary, err := drv.Run(in, out)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return exitOpenFailure
	}

	if !cli.quiet {
		printSummary(stderr, summary)
	}

	return exitOK
}

func printSummary(w io.Writer, s *driver.Summary) {
	fmt.Fprintf(w, "in: %d, out: %d, ratio: %g, ideal output: %d, error: %d\n",
		s.FramesIn, s.FramesOut, s.Ratio, s.IdealOut, s.FrameError)
	fmt.Fprintf(w, "elapsed time: %.3f sec, in frames/sec: %.0f, out frames/sec: %.0f\n",
		s.Elapsed.Seconds(), s.InPerSec, s.OutPerSec)
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `stretch-wav: time-stretch and pitch-shift WAV audio files.

Usage: stretch-wav [options] <infile.wav> <outfile.wav>

You must specify at least one of the following time and pitch ratio options.

  -time X        Stretch to X times original duration, or
  -tempo X       Change tempo by multiple X (equivalent to -time 1/X)

  -pitch X       Raise pitch by X semitones, or
  -frequency X   Change frequency by multiple X

The following option provides a simple way to adjust the sound:

  -crisp N       Crispness (N = 0,1,2,3,4,5); default 4

The remaining options fine-tune the processing mode and stretch algorithm.
The defaults and the crispness levels are intended to provide the best
sounding set of options for most situations.

  -precise         Aim for minimal time distortion (implied by -realtime)
  -realtime        Select realtime mode (implies -precise -no-threads)
  -no-threads      No extra threads regardless of CPU and channel count
  -threads         Assume multi-CPU even if only one CPU is identified
  -no-transients   Disable phase resynchronisation at transients
  -bl-transients   Band-limit phase resync to extreme frequencies
  -no-peaklock     Disable phase locking to peak frequencies
  -no-softening    Disable large-ratio softening of phase locking
  -window-long     Use longer processing window
  -window-short    Use shorter processing window
  -thresh0 F       Set internal frequency threshold 0 to F Hz
  -thresh1 F       Set internal frequency threshold 1 to F Hz
  -thresh2 F       Set internal frequency threshold 2 to F Hz
  -block N         Input block size in frames; default 1024

  -debug N         Debug level (0,1,2); default 0
  -quiet           Suppress progress output

"Crispness" levels:
  -crisp 0   equivalent to -no-transients -no-peaklock -window-long
  -crisp 1   equivalent to -no-transients -no-peaklock
  -crisp 2   equivalent to -no-transients
  -crisp 3   equivalent to -bl-transients
  -crisp 4   default processing options
  -crisp 5   equivalent to -no-peaklock -window-short (may suit drums)
`)
}
