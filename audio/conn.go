package audio

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/tversteeg/cacophony"
	"github.com/tversteeg/cacophony/exporter"
	"go.uber.org/zap"
)

// Conn connects the rest of the application to the synthesizer. It owns the
// instrument catalog and the playback state, consumes Command batches from
// the foreground, and drives both live playback and offline export.
//
// The synthesizer and the live event queue are locked per operation: the
// real-time audio callback, foreground command handling and the export
// worker all acquire them for single sends and reads, never across longer
// stretches.
type Conn struct {
	log   *zap.Logger
	synth cacophony.Synth

	synthMu sync.Mutex
	queueMu sync.Mutex
	queue   EventQueue

	playState   SharedPlayState
	exportState SharedExportState
	sample      SharedSample

	fonts *fontArena

	// State mirrors the synthesizer-facing state. It is only written
	// after the corresponding synthesizer call succeeded.
	State SynthState
	// Exporter is the live export settings; it is copied by value into
	// the worker when an export starts.
	Exporter exporter.Exporter

	// framerate is the live playback sample rate; exports may run at a
	// different rate and restore this one when they finish.
	framerate float32

	exportJobs  chan exportJob
	exportQueue []exportBatch

	player *Player
}

// NewConn wraps the synthesizer and starts the export worker.
func NewConn(synth cacophony.Synth, log *zap.Logger) *Conn {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Conn{
		log:        log,
		synth:      synth,
		fonts:      newFontArena(),
		State:      NewSynthState(),
		Exporter:   exporter.New(),
		framerate:  float32(synth.SampleRate()),
		exportJobs: make(chan exportJob, 16),
	}
	go c.exportWorker()
	return c
}

// Framerate returns the live playback sample rate.
func (c *Conn) Framerate() float32 {
	return c.framerate
}

// PlayState returns the current live playback state.
func (c *Conn) PlayState() PlayState {
	return c.playState.Get()
}

// ExportState returns the progress of the export in flight, if any.
func (c *Conn) ExportState() ExportState {
	return c.exportState.Get()
}

// Exporting reports whether an export session is active.
func (c *Conn) Exporting() bool {
	return c.exportState.Exporting()
}

// Sample returns the most recently played stereo sample, for level display.
func (c *Conn) Sample() (left, right float32) {
	return c.sample.Get()
}

// Do executes a batch of commands. Fatal failures (unreadable instrument
// banks, unwritable output files) abort the batch and are returned; per
// event synthesizer failures are absorbed.
func (c *Conn) Do(state *cacophony.State, commands []Command) error {
	for _, command := range commands {
		switch m := command.(type) {
		case LoadSoundFont:
			if err := c.loadSoundFont(m.Channel, m.Path); err != nil {
				c.log.Error("failed to load SoundFont", zap.String("path", m.Path), zap.Error(err))
				return err
			}
		case SetProgram:
			if err := c.selectProgram(m); err != nil {
				return err
			}
		case UnsetProgram:
			delete(c.State.Programs, m.Channel)
		case SetGain:
			c.synthMu.Lock()
			c.synth.SetGain(float32(m.Gain) / cacophony.MaxVolume)
			c.synthMu.Unlock()
			c.State.Gain = m.Gain
		case NoteOn:
			c.noteOn(state, m)
		case NoteOff:
			c.sendEvent(cacophony.NoteOffEvent{Channel: m.Channel, Key: m.Key})
		case NoteOnAt:
			c.queueMu.Lock()
			c.queue.Enqueue(m.Start, cacophony.NoteOnEvent{Channel: m.Channel, Key: m.Key, Velocity: m.Velocity})
			c.queue.Enqueue(m.End, cacophony.NoteOffEvent{Channel: m.Channel, Key: m.Key})
			c.queueMu.Unlock()
		case PlayMusic:
			c.startMusic(state, m.Time)
		case StopMusic:
			c.stopMusic(&state.Music)
		case SoundOff:
			for channel := range c.State.Programs {
				c.sendEvent(cacophony.AllNotesOffEvent{Channel: channel})
				c.sendEvent(cacophony.AllSoundOffEvent{Channel: channel})
			}
		case SetFramerate:
			c.synthMu.Lock()
			c.synth.SetSampleRate(int(m.Framerate))
			c.synthMu.Unlock()
		case Export:
			if err := c.startExport(state, m.Path, m.Settings); err != nil {
				c.log.Error("failed to start export", zap.String("path", m.Path), zap.Error(err))
				return err
			}
		case exportScheduled:
			c.exportFromQueue(m)
		case AppendSilences:
			if err := exporter.AppendSilences(m.Paths); err != nil {
				c.log.Error("failed to append silences", zap.Error(err))
				return err
			}
		default:
			return fmt.Errorf("unknown command type %T", command)
		}
	}
	return nil
}

// TogglePlayback starts timeline playback if music is stopped, and stops it
// otherwise.
func (c *Conn) TogglePlayback(state *cacophony.State) {
	if c.playState.Get().Phase == NotPlaying {
		c.startMusic(state, state.Time.Playback)
	} else {
		c.stopMusic(&state.Music)
	}
}

// loadSoundFont loads the bank at path and assigns its default program to
// channel. A path that is already loaded is not reloaded; only the default
// program selection is re-applied.
func (c *Conn) loadSoundFont(channel uint8, path string) error {
	if banks, ok := c.fonts.lookup(path); ok {
		c.setProgramDefault(channel, banks)
		return nil
	}
	c.synthMu.Lock()
	banks, err := c.fonts.load(path, c.synth)
	c.synthMu.Unlock()
	if err != nil {
		return err
	}
	c.setProgramDefault(channel, banks)
	// Adding a font may disturb the synthesizer's per-channel routing, so
	// re-apply every other channel's program. The bookkeeping for those
	// channels does not change.
	for other, program := range c.State.Programs {
		if other == channel || program.Path == path {
			continue
		}
		otherBanks, ok := c.fonts.lookup(program.Path)
		if !ok {
			continue
		}
		c.synthMu.Lock()
		err := c.synth.ProgramSelect(int(other), otherBanks.handle, program.Bank, program.Preset)
		c.synthMu.Unlock()
		if err != nil {
			c.log.Warn("failed to restore program",
				zap.Uint8("channel", other), zap.String("path", program.Path), zap.Error(err))
		}
	}
	return nil
}

// selectProgram resolves catalog indices to bank/preset numbers and applies
// the program.
func (c *Conn) selectProgram(m SetProgram) error {
	banks, ok := c.fonts.lookup(m.Path)
	if !ok {
		return fmt.Errorf("SoundFont %v is not loaded", m.Path)
	}
	if m.BankIndex < 0 || m.BankIndex >= len(banks.bankNumbers) {
		return fmt.Errorf("bank index %d out of range for %v", m.BankIndex, m.Path)
	}
	bank := banks.bankNumbers[m.BankIndex]
	presets := banks.banks[bank]
	if m.PresetIndex < 0 || m.PresetIndex >= len(presets) {
		return fmt.Errorf("preset index %d out of range for bank %d of %v", m.PresetIndex, bank, m.Path)
	}
	c.setProgram(m.Channel, banks, bank, presets[m.PresetIndex])
	return nil
}

// setProgramDefault assigns the lowest-numbered bank and its lowest
// numbered preset to the channel.
func (c *Conn) setProgramDefault(channel uint8, banks *fontBanks) {
	bank := banks.bankNumbers[0]
	c.setProgram(channel, banks, bank, banks.banks[bank][0])
}

// setProgram applies a program at the synthesizer and, only on success,
// records it in the mirror. A failed select leaves the previous Program for
// the channel untouched.
func (c *Conn) setProgram(channel uint8, banks *fontBanks, bank, preset int) {
	c.synthMu.Lock()
	err := c.synth.ProgramSelect(int(channel), banks.handle, bank, preset)
	c.synthMu.Unlock()
	if err != nil {
		c.log.Debug("program select failed",
			zap.Uint8("channel", channel), zap.Int("bank", bank), zap.Int("preset", preset), zap.Error(err))
		return
	}
	bankIndex := 0
	for i, b := range banks.bankNumbers {
		if b == bank {
			bankIndex = i
			break
		}
	}
	presetIndex := 0
	for i, p := range banks.banks[bank] {
		if p == preset {
			presetIndex = i
			break
		}
	}
	c.State.Programs[channel] = Program{
		Path:        banks.path,
		NumBanks:    len(banks.bankNumbers),
		BankIndex:   bankIndex,
		Bank:        bank,
		NumPresets:  len(banks.banks[bank]),
		PresetIndex: presetIndex,
		Preset:      preset,
		PresetName:  banks.presetName(bank, preset),
	}
}

// noteOn plays a note immediately, scaled by the selected track's gain.
func (c *Conn) noteOn(state *cacophony.State, m NoteOn) {
	track, ok := state.Music.SelectedTrack()
	if !ok {
		return
	}
	velocity := uint8(float32(m.Velocity) * track.GainF())
	c.sendEvent(cacophony.NoteOnEvent{Channel: m.Channel, Key: m.Key, Velocity: velocity})
	if c.playState.Get().Phase == NotPlaying {
		c.playState.Set(PlayState{Phase: Decaying})
	}
}

// sendEvent delivers one event to the synthesizer. Failures here are
// expected (e.g. a note on a channel without a program) and absorbed.
func (c *Conn) sendEvent(ev cacophony.MidiEvent) {
	c.synthMu.Lock()
	err := c.synth.SendEvent(ev)
	c.synthMu.Unlock()
	if err != nil {
		c.log.Debug("dropped event", zap.Error(err))
	}
}

// startMusic schedules every playable track from the given pulse and flips
// the play state to Playing.
func (c *Conn) startMusic(state *cacophony.State, pulse uint64) {
	start := state.Time.PpqToSamples(pulse, c.framerate)

	c.synthMu.Lock()
	c.synth.SetSampleRate(int(c.framerate))
	c.synthMu.Unlock()

	c.queueMu.Lock()
	c.queue.Clear()
	for _, track := range state.Music.PlayableTracks() {
		for _, note := range track.PlaybackNotes(pulse) {
			c.queue.Enqueue(state.Time.PpqToSamples(note.Start, c.framerate),
				cacophony.NoteOnEvent{Channel: track.Channel, Key: note.Note, Velocity: note.Velocity})
			c.queue.Enqueue(state.Time.PpqToSamples(note.End, c.framerate),
				cacophony.NoteOffEvent{Channel: track.Channel, Key: note.Note})
		}
	}
	c.queue.Sort()
	c.queueMu.Unlock()

	c.playState.Set(PlayState{Phase: Playing, Start: start})
}

// stopMusic silences every track's channel and lets the audio decay.
// Events still on the queue stay there; they are not replayed.
func (c *Conn) stopMusic(music *cacophony.Music) {
	for i := range music.MidiTracks {
		channel := music.MidiTracks[i].Channel
		c.sendEvent(cacophony.AllNotesOffEvent{Channel: channel})
		c.sendEvent(cacophony.AllSoundOffEvent{Channel: channel})
	}
	c.playState.Set(PlayState{Phase: Decaying})
}

// exportFileSuffix derives the per-track filename suffix for a multi-file
// export, according to the configured policy.
func (c *Conn) exportFileSuffix(settings *exporter.Exporter, track *cacophony.MidiTrack) string {
	program, ok := c.State.Programs[track.Channel]
	switch settings.Suffix {
	case exporter.SuffixPreset:
		if ok {
			return program.PresetName
		}
	case exporter.SuffixChannelAndPreset:
		if ok {
			return fmt.Sprintf("%d_%s", track.Channel, program.PresetName)
		}
	}
	return strconv.Itoa(int(track.Channel))
}
