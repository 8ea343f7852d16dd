// Package synth implements the cacophony.Synth contract on top of the
// go-meltysynth SoundFont synthesizer.
//
// MeltySynth binds one SoundFont to one Synthesizer, so every loaded font
// gets its own Synthesizer and the outputs are summed; channels are routed
// to the font whose program they last selected.
package synth

import (
	"fmt"
	"io"

	"github.com/sinshu/go-meltysynth/meltysynth"
	"github.com/tversteeg/cacophony"
)

type font struct {
	soundFont *meltysynth.SoundFont
	synth     *meltysynth.Synthesizer
}

type program struct {
	font         cacophony.FontHandle
	bank, preset int
}

// Synth drives one meltysynth Synthesizer per loaded SoundFont. It is not
// safe for concurrent use; callers serialize access.
type Synth struct {
	sampleRate int
	gain       float32
	fonts      []*font
	// programs remembers the last successful selection per channel, both
	// for routing events and for re-applying selections after a sample
	// rate switch.
	programs map[int]program
	l1, r1   [1]float32
}

// New returns a Synth rendering at the given sample rate.
func New(sampleRate int) *Synth {
	return &Synth{
		sampleRate: sampleRate,
		gain:       1,
		programs:   make(map[int]program),
	}
}

func (s *Synth) AddFont(r io.Reader) (cacophony.FontHandle, []cacophony.PresetInfo, error) {
	soundFont, err := meltysynth.NewSoundFont(r)
	if err != nil {
		return 0, nil, fmt.Errorf("could not parse SoundFont: %w", err)
	}
	f, err := newFont(soundFont, s.sampleRate, s.gain)
	if err != nil {
		return 0, nil, err
	}
	handle := cacophony.FontHandle(len(s.fonts))
	s.fonts = append(s.fonts, f)
	presets := make([]cacophony.PresetInfo, 0, len(soundFont.Presets))
	for _, p := range soundFont.Presets {
		presets = append(presets, cacophony.PresetInfo{
			Bank:   int(p.BankNumber),
			Preset: int(p.PatchNumber),
			Name:   p.Name,
		})
	}
	return handle, presets, nil
}

func newFont(soundFont *meltysynth.SoundFont, sampleRate int, gain float32) (*font, error) {
	settings := meltysynth.NewSynthesizerSettings(int32(sampleRate))
	synthesizer, err := meltysynth.NewSynthesizer(soundFont, settings)
	if err != nil {
		return nil, fmt.Errorf("could not create synthesizer: %w", err)
	}
	synthesizer.MasterVolume = gain
	return &font{soundFont: soundFont, synth: synthesizer}, nil
}

func (s *Synth) ProgramSelect(channel int, handle cacophony.FontHandle, bank, preset int) error {
	if handle < 0 || int(handle) >= len(s.fonts) {
		return fmt.Errorf("no font with handle %d", handle)
	}
	f := s.fonts[handle]
	// Bank select MSB, then program change. Bank 128 is the percussion
	// bank, which meltysynth routes by channel rather than by controller.
	f.synth.ProcessMidiMessage(int32(channel), 0xB0, 0x00, int32(bank&0x7F))
	f.synth.ProcessMidiMessage(int32(channel), 0xC0, int32(preset), 0)
	s.programs[channel] = program{font: handle, bank: bank, preset: preset}
	return nil
}

func (s *Synth) SendEvent(ev cacophony.MidiEvent) error {
	switch e := ev.(type) {
	case cacophony.NoteOnEvent:
		f, err := s.fontFor(int(e.Channel))
		if err != nil {
			return err
		}
		f.synth.NoteOn(int32(e.Channel), int32(e.Key), int32(e.Velocity))
	case cacophony.NoteOffEvent:
		f, err := s.fontFor(int(e.Channel))
		if err != nil {
			return err
		}
		f.synth.NoteOff(int32(e.Channel), int32(e.Key))
	case cacophony.AllNotesOffEvent:
		f, err := s.fontFor(int(e.Channel))
		if err != nil {
			return err
		}
		f.synth.ProcessMidiMessage(int32(e.Channel), 0xB0, 0x7B, 0)
	case cacophony.AllSoundOffEvent:
		f, err := s.fontFor(int(e.Channel))
		if err != nil {
			return err
		}
		f.synth.ProcessMidiMessage(int32(e.Channel), 0xB0, 0x78, 0)
	default:
		return fmt.Errorf("unknown event type %T", ev)
	}
	return nil
}

func (s *Synth) fontFor(channel int) (*font, error) {
	p, ok := s.programs[channel]
	if !ok {
		return nil, fmt.Errorf("no program assigned to channel %d", channel)
	}
	return s.fonts[p.font], nil
}

func (s *Synth) ReadNext() (left, right float32) {
	for _, f := range s.fonts {
		f.synth.Render(s.l1[:], s.r1[:])
		left += s.l1[0]
		right += s.r1[0]
	}
	return left, right
}

func (s *Synth) SetGain(gain float32) {
	s.gain = gain
	for _, f := range s.fonts {
		f.synth.MasterVolume = gain
	}
}

// SetSampleRate rebuilds every synthesizer at the new rate and re-applies
// the remembered program selections. Sounding notes are cut.
func (s *Synth) SetSampleRate(rate int) {
	if rate == s.sampleRate {
		return
	}
	s.sampleRate = rate
	for i, f := range s.fonts {
		rebuilt, err := newFont(f.soundFont, rate, s.gain)
		if err != nil {
			// The font was valid at the previous rate; keep the old
			// synthesizer rather than losing the font.
			continue
		}
		s.fonts[i] = rebuilt
	}
	for channel, p := range s.programs {
		f := s.fonts[p.font]
		f.synth.ProcessMidiMessage(int32(channel), 0xB0, 0x00, int32(p.bank&0x7F))
		f.synth.ProcessMidiMessage(int32(channel), 0xC0, int32(p.preset), 0)
	}
}

func (s *Synth) SampleRate() int {
	return s.sampleRate
}
