package cacophony

// Note is one note on a track. Start and End are in pulses (see PPQ).
type Note struct {
	Note     uint8  `yaml:"note"`
	Velocity uint8  `yaml:"velocity"`
	Start    uint64 `yaml:"start"`
	End      uint64 `yaml:"end"`
}

// MidiTrack is one channel's worth of notes plus its mixer settings.
type MidiTrack struct {
	Channel uint8  `yaml:"channel"`
	Gain    uint8  `yaml:"gain"` // 0..MaxVolume
	Mute    bool   `yaml:"mute,omitempty"`
	Solo    bool   `yaml:"solo,omitempty"`
	Notes   []Note `yaml:"notes"`
}

// GainF returns the track gain as a 0-1 fraction of MaxVolume.
func (t *MidiTrack) GainF() float32 {
	return float32(t.Gain) / MaxVolume
}

// PlaybackNotes returns the notes of the track with their velocities scaled
// by the track gain. Only notes ending after the given start pulse are
// included.
func (t *MidiTrack) PlaybackNotes(start uint64) []Note {
	gain := float64(t.GainF())
	notes := make([]Note, 0, len(t.Notes))
	for _, n := range t.Notes {
		if n.End < start {
			continue
		}
		n.Velocity = uint8(float64(n.Velocity) * gain)
		notes = append(notes, n)
	}
	return notes
}

func (t *MidiTrack) Copy() MidiTrack {
	notes := make([]Note, len(t.Notes))
	copy(notes, t.Notes)
	ret := *t
	ret.Notes = notes
	return ret
}

// Music is the whole project: every track and which one is selected.
type Music struct {
	Name       string      `yaml:"name,omitempty"`
	Selected   int         `yaml:"selected"`
	MidiTracks []MidiTrack `yaml:"midi_tracks"`
}

// SelectedTrack returns the currently selected track, if any.
func (m *Music) SelectedTrack() (*MidiTrack, bool) {
	if m.Selected < 0 || m.Selected >= len(m.MidiTracks) {
		return nil, false
	}
	return &m.MidiTracks[m.Selected], true
}

// PlayableTracks returns the tracks that should sound: if any track is
// soloed, only the soloed tracks; otherwise every non-muted track.
func (m *Music) PlayableTracks() []*MidiTrack {
	var soloed []*MidiTrack
	for i := range m.MidiTracks {
		if m.MidiTracks[i].Solo {
			soloed = append(soloed, &m.MidiTracks[i])
		}
	}
	if len(soloed) > 0 {
		return soloed
	}
	var playable []*MidiTrack
	for i := range m.MidiTracks {
		if !m.MidiTracks[i].Mute {
			playable = append(playable, &m.MidiTracks[i])
		}
	}
	return playable
}

func (m *Music) Copy() Music {
	tracks := make([]MidiTrack, len(m.MidiTracks))
	for i := range m.MidiTracks {
		tracks[i] = m.MidiTracks[i].Copy()
	}
	return Music{Name: m.Name, Selected: m.Selected, MidiTracks: tracks}
}
