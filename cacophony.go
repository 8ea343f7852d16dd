package cacophony

import "io"

const (
	// PPQ is the musical time resolution: pulses per quarter note. Note
	// start and end times are expressed in pulses and converted to sample
	// counts only at the moment they are scheduled.
	PPQ = 192

	// MaxVolume is the maximum value of a track gain or the master gain.
	MaxVolume = 127

	// DefaultFramerate is the sample rate used for live playback.
	DefaultFramerate = 44100
)

// MidiEvent is an event that can be sent to the synthesizer, either
// immediately or scheduled on an event queue.
type MidiEvent interface {
	midiEvent()
}

type NoteOnEvent struct {
	Channel  uint8
	Key      uint8
	Velocity uint8
}

type NoteOffEvent struct {
	Channel uint8
	Key     uint8
}

// AllNotesOffEvent releases every held note on a channel but lets their
// releases ring out.
type AllNotesOffEvent struct {
	Channel uint8
}

// AllSoundOffEvent cuts all sound on a channel.
type AllSoundOffEvent struct {
	Channel uint8
}

func (NoteOnEvent) midiEvent()      {}
func (NoteOffEvent) midiEvent()     {}
func (AllNotesOffEvent) midiEvent() {}
func (AllSoundOffEvent) midiEvent() {}

// FontHandle identifies one loaded instrument bank inside a Synth. Handles
// are small integers assigned in load order and are never reused.
type FontHandle int

// PresetInfo describes one (bank, preset) combination an instrument bank
// defines.
type PresetInfo struct {
	Bank   int
	Preset int
	Name   string
}

// Synth is the contract with the software synthesizer. A Synth converts a
// stream of MidiEvents plus loaded instrument banks into stereo samples, one
// frame at a time. Implementations do not need to be safe for concurrent
// use; the engine serializes access to a Synth.
type Synth interface {
	// AddFont parses and registers an instrument bank, returning an opaque
	// handle and every (bank, preset) combination the bank defines.
	AddFont(r io.Reader) (FontHandle, []PresetInfo, error)
	// ProgramSelect assigns (bank, preset) of the given font to a channel.
	ProgramSelect(channel int, font FontHandle, bank, preset int) error
	// SendEvent delivers a single MIDI event. Failures are expected for
	// channels without an assigned program and are not load-bearing.
	SendEvent(ev MidiEvent) error
	// ReadNext renders and returns the next stereo sample.
	ReadNext() (left, right float32)
	// SetGain sets the master gain as a 0-1 fraction.
	SetGain(gain float32)
	// SetSampleRate switches the synthesis sample rate. Program selections
	// survive the switch; currently sounding notes do not.
	SetSampleRate(rate int)
	// SampleRate returns the current synthesis sample rate.
	SampleRate() int
}
