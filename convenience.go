package stretch

// NewTimeStretcher creates an offline stretcher that changes duration by
// ratio while leaving pitch untouched, using the default crispness profile.
func NewTimeStretcher(sampleRate, channels int, ratio float64) (Stretcher, error) {
	return New(&Config{
		SampleRate:     sampleRate,
		Channels:       channels,
		TimeRatio:      ratio,
		FrequencyShift: 1.0,
		Options:        DefaultOptions(),
	})
}

// NewPitchShifter creates an offline stretcher that shifts pitch by the
// given number of semitones while preserving duration.
func NewPitchShifter(sampleRate, channels int, semitones float64) (Stretcher, error) {
	return New(&Config{
		SampleRate:     sampleRate,
		Channels:       channels,
		TimeRatio:      1.0,
		FrequencyShift: SemitonesToFrequencyShift(semitones),
		Options:        DefaultOptions(),
	})
}

// NewRealtime creates a single-pass realtime stretcher. The study pass is
// unavailable; precise stretching and sequential processing are implied.
func NewRealtime(sampleRate, channels int, ratio, frequencyShift float64) (Stretcher, error) {
	opts := DefaultOptions()
	opts.Mode = ModeRealtime

	return New(&Config{
		SampleRate:     sampleRate,
		Channels:       channels,
		TimeRatio:      ratio,
		FrequencyShift: frequencyShift,
		Options:        opts,
	})
}
