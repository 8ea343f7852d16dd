package exporter

import (
	"path/filepath"
	"testing"

	"github.com/tversteeg/cacophony"
	"gitlab.com/gomidi/midi/v2/smf"
)

func TestMidRoundTrip(t *testing.T) {
	state := &cacophony.State{
		Music: cacophony.Music{
			MidiTracks: []cacophony.MidiTrack{
				{
					Channel: 0,
					Gain:    cacophony.MaxVolume,
					Notes: []cacophony.Note{
						{Note: 60, Velocity: 100, Start: 0, End: cacophony.PPQ},
						{Note: 64, Velocity: 90, Start: cacophony.PPQ, End: 2 * cacophony.PPQ},
					},
				},
				{
					Channel: 1,
					Gain:    cacophony.MaxVolume,
					Notes:   []cacophony.Note{{Note: 48, Velocity: 80, Start: 0, End: 2 * cacophony.PPQ}},
				},
			},
		},
		Time: cacophony.Time{BPM: 90},
	}

	e := New()
	e.Metadata.Title = "Test Song"
	path := filepath.Join(t.TempDir(), "out.mid")
	if err := e.Mid(path, state, []string{"Piano", "Cello"}); err != nil {
		t.Fatal(err)
	}

	rd, err := smf.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	tempos := rd.TempoChanges()
	if len(tempos) == 0 || int(tempos[0].BPM+0.5) != 90 {
		t.Errorf("got tempo changes %v, want 90 BPM", tempos)
	}
	if len(rd.Tracks) != 1 {
		t.Fatalf("got %d tracks, want 1", len(rd.Tracks))
	}

	var keys []uint8
	var tick uint32
	var lastOnTick []uint32
	for _, ev := range rd.Tracks[0] {
		tick += ev.Delta
		var channel, key, velocity uint8
		if ev.Message.GetNoteOn(&channel, &key, &velocity) && velocity > 0 {
			keys = append(keys, key)
			lastOnTick = append(lastOnTick, tick)
		}
	}
	if len(keys) != 3 {
		t.Fatalf("got %d note-ons, want 3", len(keys))
	}
	// Simultaneous notes come out in track order; the later note follows.
	if keys[0] != 60 || keys[1] != 48 || keys[2] != 64 {
		t.Errorf("got keys %v, want [60 48 64]", keys)
	}
	if lastOnTick[0] != 0 || lastOnTick[1] != 0 {
		t.Errorf("got start ticks %v, want the first two at 0", lastOnTick)
	}
	if lastOnTick[2] != cacophony.PPQ {
		t.Errorf("second note starts at tick %d, want %d", lastOnTick[2], cacophony.PPQ)
	}
}

func TestMidEmptyMusic(t *testing.T) {
	e := New()
	path := filepath.Join(t.TempDir(), "out.mid")
	state := &cacophony.State{Time: cacophony.Time{BPM: 120}}
	if err := e.Mid(path, state, nil); err != nil {
		t.Fatal(err)
	}
}
