package stretch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/go-audio-stretch/internal/engine"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.Equal(t, ModeOffline, opts.Mode)
	assert.Equal(t, TransientsCrisp, opts.Transients)
	assert.True(t, opts.PeakLock)
	assert.True(t, opts.Softening)
	assert.Equal(t, WindowStandard, opts.Window)
	assert.Equal(t, ThreadingAuto, opts.Threading)
}

func TestCrispnessProfiles(t *testing.T) {
	tests := []struct {
		crispness  Crispness
		transients Transients
		peakLock   bool
		window     Window
	}{
		{CrispnessMushy, TransientsSmooth, false, WindowLong},
		{CrispnessSmooth, TransientsSmooth, false, WindowStandard},
		{CrispnessMixture, TransientsSmooth, true, WindowStandard},
		{CrispnessPercussive, TransientsMixed, true, WindowStandard},
		{CrispnessDefault, TransientsCrisp, true, WindowStandard},
		{CrispnessDrums, TransientsCrisp, false, WindowShort},
	}

	for _, tt := range tests {
		t.Run(tt.crispness.String(), func(t *testing.T) {
			opts := CrispnessProfile(tt.crispness)

			assert.Equal(t, tt.transients, opts.Transients)
			assert.Equal(t, tt.peakLock, opts.PeakLock)
			assert.Equal(t, tt.window, opts.Window)
			assert.True(t, opts.Softening, "softening stays on in every profile")
		})
	}
}

func TestCrispnessString(t *testing.T) {
	assert.Equal(t, "Crisp monophonic instrumental", CrispnessDefault.String())
	assert.Equal(t, "Unpitched solo percussion", CrispnessDrums.String())
	assert.Equal(t, "unknown", Crispness(99).String())
}

func TestSettingsForRealtime(t *testing.T) {
	cfg := validConfig()
	cfg.Options.Mode = ModeRealtime
	cfg.Options.Threading = ThreadingAlways

	set := settingsFor(cfg)

	assert.True(t, set.Realtime)
	assert.True(t, set.Precise, "realtime implies precise")
	assert.Equal(t, engine.ParallelNever, set.Parallel, "realtime disables extra threads")
}
