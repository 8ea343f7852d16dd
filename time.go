package cacophony

// Time holds the musical clock settings of a project.
type Time struct {
	BPM uint32 `yaml:"bpm"`
	// Playback is the pulse from which playback starts.
	Playback uint64 `yaml:"playback"`
}

// PpqToSamples converts a time in pulses to a sample count at the given
// sample rate. This is the single point where musical time becomes engine
// time.
func (t *Time) PpqToSamples(ppq uint64, framerate float32) uint64 {
	beats := float64(ppq) / PPQ
	return uint64(beats * 60.0 / float64(t.BPM) * float64(framerate))
}

// State is the part of the application state the audio engine needs: the
// music and the clock.
type State struct {
	Music Music `yaml:"music"`
	Time  Time  `yaml:"time"`
}
