package audio

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/tversteeg/cacophony"
)

// fakeSynth is a scripted synthesizer for tests. Every loaded font exposes
// the same three presets; ReadNext outputs a constant level while any note
// is held and silence otherwise.
type fakeSynth struct {
	mu        sync.Mutex
	rate      int
	gain      float32
	numFonts  int
	programs  map[int][3]int
	events    []cacophony.MidiEvent
	active    int
	failLoad  bool
	failSends bool
}

func newFakeSynth() *fakeSynth {
	return &fakeSynth{rate: cacophony.DefaultFramerate, gain: 1, programs: make(map[int][3]int)}
}

func (s *fakeSynth) AddFont(r io.Reader) (cacophony.FontHandle, []cacophony.PresetInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLoad {
		return 0, nil, errors.New("unreadable font")
	}
	handle := cacophony.FontHandle(s.numFonts)
	s.numFonts++
	return handle, []cacophony.PresetInfo{
		{Bank: 8, Preset: 3, Name: "Celesta"},
		{Bank: 0, Preset: 42, Name: "Cello"},
		{Bank: 0, Preset: 0, Name: "Piano"},
	}, nil
}

func (s *fakeSynth) ProgramSelect(channel int, font cacophony.FontHandle, bank, preset int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSends {
		return errors.New("program select refused")
	}
	s.programs[channel] = [3]int{int(font), bank, preset}
	return nil
}

func (s *fakeSynth) SendEvent(ev cacophony.MidiEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSends {
		return errors.New("event refused")
	}
	s.events = append(s.events, ev)
	switch ev.(type) {
	case cacophony.NoteOnEvent:
		s.active++
	case cacophony.NoteOffEvent:
		if s.active > 0 {
			s.active--
		}
	case cacophony.AllNotesOffEvent, cacophony.AllSoundOffEvent:
		s.active = 0
	}
	return nil
}

func (s *fakeSynth) ReadNext() (float32, float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active > 0 {
		return 0.25, 0.25
	}
	return 0, 0
}

func (s *fakeSynth) SetGain(gain float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gain = gain
}

func (s *fakeSynth) SetSampleRate(rate int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = rate
}

func (s *fakeSynth) SampleRate() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

func (s *fakeSynth) sentEvents() []cacophony.MidiEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]cacophony.MidiEvent(nil), s.events...)
}

func newTestConn(t *testing.T) (*Conn, *fakeSynth) {
	t.Helper()
	synth := newFakeSynth()
	return NewConn(synth, nil), synth
}

func writeFontFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.sf2")
	if err := os.WriteFile(path, []byte("RIFF"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// testState is one track on channel 0 with two back-to-back quarter notes.
func testState() *cacophony.State {
	return &cacophony.State{
		Music: cacophony.Music{
			Selected: 0,
			MidiTracks: []cacophony.MidiTrack{{
				Channel: 0,
				Gain:    cacophony.MaxVolume,
				Notes: []cacophony.Note{
					{Note: 60, Velocity: 100, Start: 0, End: cacophony.PPQ},
					{Note: 64, Velocity: 90, Start: cacophony.PPQ, End: 2 * cacophony.PPQ},
				},
			}},
		},
		Time: cacophony.Time{BPM: 120},
	}
}

func TestLoadSoundFontAssignsDefaultProgram(t *testing.T) {
	c, synth := newTestConn(t)
	path := writeFontFile(t)
	if err := c.Do(testState(), []Command{LoadSoundFont{Channel: 0, Path: path}}); err != nil {
		t.Fatal(err)
	}
	program, ok := c.State.Programs[0]
	if !ok {
		t.Fatal("no program assigned to channel 0")
	}
	if program.Bank != 0 || program.Preset != 0 || program.PresetName != "Piano" {
		t.Errorf("got program %+v, want bank 0 preset 0 Piano", program)
	}
	if program.NumBanks != 2 || program.NumPresets != 2 {
		t.Errorf("got %d banks and %d presets, want 2 and 2", program.NumBanks, program.NumPresets)
	}
	if got := synth.programs[0]; got != [3]int{0, 0, 0} {
		t.Errorf("synthesizer got program %v, want [0 0 0]", got)
	}
}

func TestLoadSoundFontTwiceLoadsOnce(t *testing.T) {
	c, synth := newTestConn(t)
	path := writeFontFile(t)
	state := testState()
	if err := c.Do(state, []Command{
		LoadSoundFont{Channel: 0, Path: path},
		SetProgram{Channel: 0, Path: path, BankIndex: 1, PresetIndex: 0},
		LoadSoundFont{Channel: 1, Path: path},
	}); err != nil {
		t.Fatal(err)
	}
	if synth.numFonts != 1 {
		t.Errorf("font loaded %d times, want 1", synth.numFonts)
	}
	// Channel 1 gets the default program; channel 0 keeps its selection.
	if program := c.State.Programs[1]; program.Bank != 0 || program.Preset != 0 {
		t.Errorf("channel 1 got %+v, want the default program", program)
	}
	if program := c.State.Programs[0]; program.Bank != 8 || program.Preset != 3 {
		t.Errorf("channel 0 got %+v, want bank 8 preset 3", program)
	}
}

func TestLoadSoundFontFailure(t *testing.T) {
	c, synth := newTestConn(t)
	synth.failLoad = true
	err := c.Do(testState(), []Command{LoadSoundFont{Channel: 0, Path: writeFontFile(t)}})
	if err == nil {
		t.Fatal("expected an error from a failing load")
	}
	if len(c.State.Programs) != 0 {
		t.Errorf("programs %v assigned despite failed load", c.State.Programs)
	}
}

func TestSetProgramResolvesCatalogIndices(t *testing.T) {
	c, _ := newTestConn(t)
	path := writeFontFile(t)
	if err := c.Do(testState(), []Command{
		LoadSoundFont{Channel: 0, Path: path},
		SetProgram{Channel: 0, Path: path, BankIndex: 0, PresetIndex: 1},
	}); err != nil {
		t.Fatal(err)
	}
	program := c.State.Programs[0]
	if program.Bank != 0 || program.Preset != 42 || program.PresetName != "Cello" {
		t.Errorf("got %+v, want bank 0 preset 42 Cello", program)
	}
}

func TestSetProgramOutOfRange(t *testing.T) {
	c, _ := newTestConn(t)
	path := writeFontFile(t)
	state := testState()
	if err := c.Do(state, []Command{LoadSoundFont{Channel: 0, Path: path}}); err != nil {
		t.Fatal(err)
	}
	err := c.Do(state, []Command{SetProgram{Channel: 0, Path: path, BankIndex: 5, PresetIndex: 0}})
	if err == nil {
		t.Fatal("expected an error for a bank index out of range")
	}
}

func TestSetProgramFailureKeepsMirror(t *testing.T) {
	c, synth := newTestConn(t)
	path := writeFontFile(t)
	state := testState()
	if err := c.Do(state, []Command{LoadSoundFont{Channel: 0, Path: path}}); err != nil {
		t.Fatal(err)
	}
	before := c.State.Programs[0]
	synth.failSends = true
	if err := c.Do(state, []Command{SetProgram{Channel: 0, Path: path, BankIndex: 1, PresetIndex: 0}}); err != nil {
		t.Fatal(err)
	}
	if got := c.State.Programs[0]; got != before {
		t.Errorf("mirror changed to %+v after a failed select, want %+v", got, before)
	}
}

func TestPlayAndStop(t *testing.T) {
	c, synth := newTestConn(t)
	state := testState()
	if err := c.Do(state, []Command{PlayMusic{Time: 0}}); err != nil {
		t.Fatal(err)
	}
	if ps := c.PlayState(); ps.Phase != Playing || ps.Start != 0 {
		t.Errorf("got play state %+v, want Playing from 0", ps)
	}
	if got := c.queue.Len(); got != 4 {
		t.Errorf("queue has %d events, want 4", got)
	}
	if err := c.Do(state, []Command{StopMusic{}}); err != nil {
		t.Fatal(err)
	}
	if ps := c.PlayState(); ps.Phase != Decaying {
		t.Errorf("got phase %v after stop, want Decaying", ps.Phase)
	}
	// Stopping silences the channels but leaves future events queued.
	if got := c.queue.Len(); got != 4 {
		t.Errorf("queue has %d events after stop, want 4", got)
	}
	var notesOff, soundOff bool
	for _, ev := range synth.sentEvents() {
		switch ev.(type) {
		case cacophony.AllNotesOffEvent:
			notesOff = true
		case cacophony.AllSoundOffEvent:
			soundOff = true
		}
	}
	if !notesOff || !soundOff {
		t.Error("stop did not silence the track channels")
	}
}

func TestPlayMusicSkipsElapsedNotes(t *testing.T) {
	c, _ := newTestConn(t)
	state := testState()
	if err := c.Do(state, []Command{PlayMusic{Time: cacophony.PPQ + 10}}); err != nil {
		t.Fatal(err)
	}
	// Only the second note survives; playback starts mid-song.
	if got := c.queue.Len(); got != 2 {
		t.Errorf("queue has %d events, want 2", got)
	}
	want := state.Time.PpqToSamples(cacophony.PPQ+10, c.Framerate())
	if ps := c.PlayState(); ps.Start != want {
		t.Errorf("playback starts at sample %d, want %d", ps.Start, want)
	}
}

func TestNoteOnScalesVelocityByTrackGain(t *testing.T) {
	c, synth := newTestConn(t)
	state := testState()
	state.Music.MidiTracks[0].Gain = 64
	if err := c.Do(state, []Command{NoteOn{Channel: 0, Key: 60, Velocity: 100}}); err != nil {
		t.Fatal(err)
	}
	events := synth.sentEvents()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	on, ok := events[0].(cacophony.NoteOnEvent)
	if !ok {
		t.Fatalf("got %T, want a note-on", events[0])
	}
	if on.Velocity != 50 {
		t.Errorf("got velocity %d, want 50", on.Velocity)
	}
	if ps := c.PlayState(); ps.Phase != Decaying {
		t.Errorf("got phase %v, want Decaying so the note is audible", ps.Phase)
	}
}

func TestSetGain(t *testing.T) {
	c, synth := newTestConn(t)
	if err := c.Do(testState(), []Command{SetGain{Gain: 64}}); err != nil {
		t.Fatal(err)
	}
	if c.State.Gain != 64 {
		t.Errorf("got mirror gain %d, want 64", c.State.Gain)
	}
	want := float32(64) / cacophony.MaxVolume
	if synth.gain != want {
		t.Errorf("got synthesizer gain %v, want %v", synth.gain, want)
	}
}
