package exporter

import (
	"fmt"
	"sort"
	"time"

	"github.com/tversteeg/cacophony"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

type channelNote struct {
	cacophony.Note
	channel uint8
}

// Mid serializes the music directly to a standard MIDI file, bypassing the
// synthesizer entirely. presetNames are the instrument names of the
// currently assigned programs, written as meta events.
func (e *Exporter) Mid(path string, state *cacophony.State, presetNames []string) error {
	var notes []channelNote
	for _, track := range state.Music.MidiTracks {
		for _, n := range track.Notes {
			notes = append(notes, channelNote{Note: n, channel: track.Channel})
		}
	}
	if len(notes) == 0 {
		return nil
	}

	var tr smf.Track
	tr.Add(0, smf.MetaText(e.Metadata.Title))
	if e.Copyright {
		tr.Add(0, smf.MetaCopyright(fmt.Sprintf("%d %s", time.Now().Year(), e.Metadata.Artist)))
	}
	for _, name := range presetNames {
		tr.Add(0, smf.MetaInstrument(name))
	}
	tr.Add(0, smf.MetaTempo(float64(state.Time.BPM)))

	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].Start < notes[j].Start
	})
	t1 := uint64(0)
	for _, n := range notes {
		if n.End > t1 {
			t1 = n.End
		}
	}

	// Walk the song one pulse at a time, accumulating the delta-time and
	// resetting it after every emitted event.
	var dt uint32
	for t := uint64(0); t <= t1; t++ {
		for _, n := range notes {
			if n.Start == t {
				tr.Add(dt, midi.NoteOn(n.channel, n.Note.Note, n.Velocity))
				dt = 0
			}
		}
		for _, n := range notes {
			if n.End == t {
				tr.Add(dt, midi.NoteOff(n.channel, n.Note.Note))
				dt = 0
			}
		}
		dt++
	}
	tr.Close(0)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(cacophony.PPQ)
	if err := s.Add(tr); err != nil {
		return fmt.Errorf("could not add midi track: %w", err)
	}
	if err := s.WriteFile(path); err != nil {
		return fmt.Errorf("could not write %v: %w", path, err)
	}
	return nil
}
