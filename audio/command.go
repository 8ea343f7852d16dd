package audio

import "github.com/tversteeg/cacophony/exporter"

// Command is one instruction from the foreground layer to the Conn. The
// foreground translates note and track edits into batches of commands and
// hands them to Conn.Do.
type Command interface {
	command()
}

// LoadSoundFont loads the instrument bank at Path and assigns its default
// program (lowest bank, lowest preset) to Channel. Loading a path twice
// only re-applies the default program.
type LoadSoundFont struct {
	Channel uint8
	Path    string
}

// SetProgram assigns a program to Channel. BankIndex and PresetIndex are
// positions in the currently enumerated sorted bank and preset lists, not
// raw bank/preset numbers.
type SetProgram struct {
	Channel     uint8
	Path        string
	BankIndex   int
	PresetIndex int
}

// UnsetProgram removes Channel's program assignment.
type UnsetProgram struct {
	Channel uint8
}

// SetGain sets the master gain, 0..MaxVolume.
type SetGain struct {
	Gain uint8
}

// NoteOn plays a note immediately, outside the timeline. The velocity is
// scaled by the selected track's gain.
type NoteOn struct {
	Channel  uint8
	Key      uint8
	Velocity uint8
}

// NoteOff releases an immediately played note.
type NoteOff struct {
	Channel uint8
	Key     uint8
}

// NoteOnAt schedules a note directly on the live event queue with absolute
// sample times. It is used by the multi-file export queue, which lays out
// each track's notes itself.
type NoteOnAt struct {
	Channel  uint8
	Key      uint8
	Velocity uint8
	Start    uint64
	End      uint64
}

// PlayMusic schedules every playable track and starts timeline playback
// from the given pulse.
type PlayMusic struct {
	Time uint64
}

// StopMusic silences every track and lets the audio decay.
type StopMusic struct{}

// SoundOff immediately cuts all sound on every channel with a program.
type SoundOff struct{}

// SetFramerate switches the synthesizer sample rate, e.g. to the export
// rate before a scheduled export.
type SetFramerate struct {
	Framerate uint32
}

// Export renders the current music offline to Path with the given
// settings. If an export is already active the request is queued, not
// rejected.
type Export struct {
	Path     string
	Settings exporter.Exporter
}

// exportScheduled exports whatever is on the live event queue. It is only
// issued internally by the multi-file export queue.
type exportScheduled struct {
	path         string
	settings     exporter.Exporter
	totalSamples uint64
}

// AppendSilences pads the given wav files to a common length. Issued as the
// trailing step of a multi-file export queue.
type AppendSilences struct {
	Paths []string
}

func (LoadSoundFont) command()   {}
func (SetProgram) command()      {}
func (UnsetProgram) command()    {}
func (SetGain) command()         {}
func (NoteOn) command()          {}
func (NoteOff) command()         {}
func (NoteOnAt) command()        {}
func (PlayMusic) command()       {}
func (StopMusic) command()       {}
func (SoundOff) command()        {}
func (SetFramerate) command()    {}
func (Export) command()          {}
func (exportScheduled) command() {}
func (AppendSilences) command()  {}
