package cacophony

import "testing"

func trackWithChannel(channel uint8) MidiTrack {
	return MidiTrack{
		Channel: channel,
		Gain:    MaxVolume,
		Notes:   []Note{{Note: 60, Velocity: 100, Start: 0, End: PPQ}},
	}
}

func TestPlayableTracksMute(t *testing.T) {
	music := Music{MidiTracks: []MidiTrack{
		trackWithChannel(0),
		trackWithChannel(1),
		trackWithChannel(2),
	}}
	music.MidiTracks[1].Mute = true
	playable := music.PlayableTracks()
	if len(playable) != 2 {
		t.Fatalf("got %d playable tracks, want 2", len(playable))
	}
	if playable[0].Channel != 0 || playable[1].Channel != 2 {
		t.Errorf("got channels %d and %d, want 0 and 2", playable[0].Channel, playable[1].Channel)
	}
}

func TestPlayableTracksSoloWins(t *testing.T) {
	music := Music{MidiTracks: []MidiTrack{
		trackWithChannel(0),
		trackWithChannel(1),
		trackWithChannel(2),
	}}
	music.MidiTracks[0].Mute = true
	music.MidiTracks[2].Solo = true
	playable := music.PlayableTracks()
	if len(playable) != 1 || playable[0].Channel != 2 {
		t.Fatalf("got %v, want only the soloed track", playable)
	}
}

func TestPlaybackNotesScalesVelocity(t *testing.T) {
	track := trackWithChannel(0)
	track.Gain = 64
	notes := track.PlaybackNotes(0)
	if len(notes) != 1 {
		t.Fatalf("got %d notes, want 1", len(notes))
	}
	if notes[0].Velocity != 50 {
		t.Errorf("got velocity %d, want 50", notes[0].Velocity)
	}
	// The track itself is untouched.
	if track.Notes[0].Velocity != 100 {
		t.Errorf("track note velocity changed to %d", track.Notes[0].Velocity)
	}
}

func TestPlaybackNotesSkipsElapsed(t *testing.T) {
	track := MidiTrack{Gain: MaxVolume, Notes: []Note{
		{Note: 60, Velocity: 100, Start: 0, End: PPQ},
		{Note: 64, Velocity: 100, Start: PPQ, End: 2 * PPQ},
	}}
	notes := track.PlaybackNotes(PPQ + 10)
	if len(notes) != 1 || notes[0].Note != 64 {
		t.Fatalf("got %v, want only the second note", notes)
	}
}

func TestSelectedTrackOutOfRange(t *testing.T) {
	music := Music{Selected: 3, MidiTracks: []MidiTrack{trackWithChannel(0)}}
	if _, ok := music.SelectedTrack(); ok {
		t.Error("got a selected track for an out-of-range index")
	}
}
