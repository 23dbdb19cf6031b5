package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"

	stretch "github.com/tphakala/go-audio-stretch"
)

// threading policy values accumulated from the CLI flags.
const (
	threadingAuto = iota
	threadingNever
	threadingAlways
)

// cliOptions holds the parsed command line.
type cliOptions struct {
	ratio     float64
	pitch     float64
	frequency float64
	haveRatio bool

	crispness int

	realtime     bool
	precise      bool
	threading    int
	noTransients bool
	blTransients bool
	noPeaklock   bool
	noSoftening  bool
	windowLong   bool
	windowShort  bool

	thresh0 float64
	thresh1 float64
	thresh2 float64

	blockSize int
	quiet     bool
	debug     int

	inPath  string
	outPath string
}

// parseArgs parses the command line. A nil error with haveRatio unset, or
// fewer than two positional arguments, is still a usage error; the caller
// checks those.
func parseArgs(args []string, output io.Writer) (*cliOptions, error) {
	cli := &cliOptions{
		ratio:     1.0,
		frequency: 1.0,
		crispness: -1,
		blockSize: defaultBlockSize,
	}

	fs := flag.NewFlagSet("stretch-wav", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {} // the caller prints the full usage text on any failure

	fs.Func("time", "Stretch to `X` times original duration", func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		cli.ratio *= v
		cli.haveRatio = true
		return nil
	})
	fs.Func("tempo", "Change tempo by multiple `X` (equivalent to -time 1/X)", func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		if v != 0.0 {
			cli.ratio /= v
		}
		cli.haveRatio = true
		return nil
	})
	fs.Func("pitch", "Raise pitch by `X` semitones", func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		cli.pitch = v
		cli.haveRatio = true
		return nil
	})
	fs.Func("frequency", "Change frequency by multiple `X`", func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		cli.frequency = v
		cli.haveRatio = true
		return nil
	})

	fs.IntVar(&cli.crispness, "crisp", -1, "Crispness level (0..5); default 4")
	fs.BoolVar(&cli.realtime, "realtime", false, "Select realtime mode (implies -precise -no-threads)")
	fs.BoolVar(&cli.precise, "precise", false, "Aim for minimal time distortion (implied by -realtime)")
	fs.BoolFunc("no-threads", "No extra threads regardless of CPU and channel count", func(string) error {
		cli.threading = threadingNever
		return nil
	})
	fs.BoolFunc("threads", "Assume multi-CPU even if only one CPU is identified", func(string) error {
		cli.threading = threadingAlways
		return nil
	})
	fs.BoolVar(&cli.noTransients, "no-transients", false, "Disable phase resynchronisation at transients")
	fs.BoolVar(&cli.blTransients, "bl-transients", false, "Band-limit phase resync to extreme frequencies")
	fs.BoolVar(&cli.noPeaklock, "no-peaklock", false, "Disable phase locking to peak frequencies")
	fs.BoolVar(&cli.noSoftening, "no-softening", false, "Disable large-ratio softening of phase locking")
	fs.BoolVar(&cli.windowLong, "window-long", false, "Use longer processing window")
	fs.BoolVar(&cli.windowShort, "window-short", false, "Use shorter processing window")
	fs.Float64Var(&cli.thresh0, "thresh0", 0, "Set internal frequency threshold 0 to `F` Hz")
	fs.Float64Var(&cli.thresh1, "thresh1", 0, "Set internal frequency threshold 1 to `F` Hz")
	fs.Float64Var(&cli.thresh2, "thresh2", 0, "Set internal frequency threshold 2 to `F` Hz")
	fs.IntVar(&cli.blockSize, "block", defaultBlockSize, "Input block size in frames")
	fs.BoolVar(&cli.quiet, "quiet", false, "Suppress progress output")
	fs.IntVar(&cli.debug, "debug", 0, "Debug level (0..2)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	rest := fs.Args()
	if len(rest) >= 1 {
		cli.inPath = rest[0]
	}
	if len(rest) >= 2 {
		cli.outPath = rest[1]
	}
	if len(rest) != 2 {
		return cli, fmt.Errorf("expected 2 file arguments, got %d", len(rest))
	}

	return cli, nil
}

// effectiveCrispness resolves the crispness level, applying the default.
func effectiveCrispness(cli *cliOptions) stretch.Crispness {
	if cli.crispness < 0 || cli.crispness > int(stretch.CrispnessDrums) {
		return stretch.CrispnessDefault
	}
	return stretch.Crispness(cli.crispness)
}

// engineOptions maps the parsed command line onto the engine option set:
// crispness profile first, explicit toggles on top.
func engineOptions(cli *cliOptions) stretch.Options {
	opts := stretch.CrispnessProfile(effectiveCrispness(cli))

	if cli.noTransients {
		opts.Transients = stretch.TransientsSmooth
	}
	if cli.blTransients {
		opts.Transients = stretch.TransientsMixed
	}
	if cli.noPeaklock {
		opts.PeakLock = false
	}
	if cli.noSoftening {
		opts.Softening = false
	}
	if cli.windowLong {
		opts.Window = stretch.WindowLong
	}
	if cli.windowShort {
		opts.Window = stretch.WindowShort
	}

	if cli.realtime {
		opts.Mode = stretch.ModeRealtime
	}
	if cli.precise {
		opts.Precise = true
	}

	switch cli.threading {
	case threadingNever:
		opts.Threading = stretch.ThreadingNever
	case threadingAlways:
		opts.Threading = stretch.ThreadingAlways
	default:
		opts.Threading = stretch.ThreadingAuto
	}

	opts.Threshold0 = cli.thresh0
	opts.Threshold1 = cli.thresh1
	opts.Threshold2 = cli.thresh2

	return opts
}

// effectiveFrequencyShift composes the frequency multiplier with a pitch
// shift given in semitones. Pure unit conversion, done before engine
// construction.
func effectiveFrequencyShift(cli *cliOptions) float64 {
	shift := cli.frequency
	if cli.pitch != 0 {
		shift *= stretch.SemitonesToFrequencyShift(cli.pitch)
	}
	return shift
}
