package driver

import (
	"fmt"
	"io"
)

// Pass identifies which pipeline pass a progress value belongs to.
type Pass int

const (
	// PassStudy is the preliminary offline analysis pass.
	PassStudy Pass = iota

	// PassProcess is the transformation pass.
	PassProcess
)

// String returns the pass name.
func (p Pass) String() string {
	if p == PassStudy {
		return "Study"
	}
	return "Process"
}

func (p Pass) banner() string {
	if p == PassStudy {
		return "Pass 1: Studying..."
	}
	return "Pass 2: Processing..."
}

// ProgressReporter derives a monotonic percent-complete value from a frame
// cursor, deduplicating repeated values so that fast engines do not flood
// the terminal. A nil writer suppresses all output while keeping the
// percent bookkeeping intact.
type ProgressReporter struct {
	total int64
	last  int
	pass  Pass
	w     io.Writer
}

// NewProgressReporter creates a reporter over totalFrames writing to w.
func NewProgressReporter(totalFrames int64, w io.Writer) *ProgressReporter {
	return &ProgressReporter{total: totalFrames, last: -1, w: w}
}

// StartPass resets the reporter for a new pass. When announce is set the
// pass banner is printed.
func (p *ProgressReporter) StartPass(pass Pass, announce bool) {
	p.pass = pass
	p.last = -1

	if announce && p.w != nil {
		fmt.Fprintf(p.w, "%s\n", pass.banner())
	}
}

// Report emits the percentage for the given frame cursor if it has grown
// since the last report. The first block of a pass (cursor zero) always
// reports, so a value is guaranteed at pass start.
func (p *ProgressReporter) Report(cursor int64) {
	if p.total <= 0 {
		return
	}

	percent := int(cursor * 100 / p.total)
	if percent > p.last || cursor == 0 {
		p.last = percent
		if p.w != nil {
			fmt.Fprintf(p.w, "\r%d%% ", percent)
		}
	}
}

// Last returns the most recently reported percent, or -1 if none.
func (p *ProgressReporter) Last() int {
	return p.last
}

// Line overwrites the percent display with a message on its own line.
func (p *ProgressReporter) Line(msg string) {
	if p.w != nil {
		fmt.Fprintf(p.w, "\r%s\n", msg)
	}
}
