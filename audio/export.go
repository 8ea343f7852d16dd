package audio

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tversteeg/cacophony"
	"github.com/tversteeg/cacophony/exporter"
	"go.uber.org/zap"
)

// progressInterval is how often, in samples, the export worker publishes
// its progress.
const progressInterval = 4096

// Exportable is one file's worth of offline rendering: the scheduled
// events, the number of samples up to the last note-off, and the filename
// suffix for multi-file exports.
type Exportable struct {
	Events       EventQueue
	TotalSamples uint64
	Suffix       string
}

// exportJob is one export session handed to the worker. A session renders
// one file, or one file per playable track when multi-file export is on.
type exportJob struct {
	exportables []Exportable
	settings    exporter.Exporter
	path        string
	// restoreRate is the live sample rate to restore once the session is
	// done.
	restoreRate int
}

// startExport accepts an export request. MIDI exports are written directly;
// audio exports are laid out here and rendered on the worker goroutine. The
// export state is initialized before the job is submitted, so a caller that
// polls Exporting right after Do never sees a gap.
func (c *Conn) startExport(state *cacophony.State, path string, settings exporter.Exporter) error {
	if settings.Type == exporter.Mid {
		return settings.Mid(path, state, c.presetNames(state))
	}
	framerate := float32(settings.Framerate)
	var exportables []Exportable
	if settings.MultiFile {
		seen := make(map[string]int)
		for _, track := range state.Music.PlayableTracks() {
			ex := exportableFromTracks(state, []*cacophony.MidiTrack{track}, framerate)
			if ex.TotalSamples == 0 {
				continue
			}
			suffix := c.exportFileSuffix(&settings, track)
			seen[suffix]++
			if n := seen[suffix]; n > 1 {
				suffix = fmt.Sprintf("%v_%d", suffix, n)
			}
			ex.Suffix = suffix
			exportables = append(exportables, ex)
		}
	} else {
		ex := exportableFromTracks(state, state.Music.PlayableTracks(), framerate)
		if ex.TotalSamples > 0 {
			exportables = append(exportables, ex)
		}
	}
	if len(exportables) == 0 {
		return nil
	}
	// While a job is in flight the worker owns the progress record; a
	// request accepted in the meantime just queues behind it.
	if !c.exportState.Exporting() {
		c.exportState.Set(ExportState{Phase: WritingAudio, TotalSamples: exportables[0].TotalSamples})
	}
	c.exportJobs <- exportJob{
		exportables: exportables,
		settings:    settings,
		path:        path,
		restoreRate: int(c.framerate),
	}
	return nil
}

// exportFromQueue exports whatever NoteOnAt commands put on the live event
// queue. The queue is stolen, so playback cannot replay the events.
func (c *Conn) exportFromQueue(m exportScheduled) {
	c.queueMu.Lock()
	events := c.queue
	c.queue = EventQueue{}
	c.queueMu.Unlock()
	events.Sort()
	c.playState.Set(PlayState{Phase: NotPlaying})
	c.exportState.Set(ExportState{Phase: WritingAudio, TotalSamples: m.totalSamples})
	c.exportJobs <- exportJob{
		exportables: []Exportable{{Events: events, TotalSamples: m.totalSamples}},
		settings:    m.settings,
		path:        m.path,
		restoreRate: int(c.framerate),
	}
}

// exportableFromTracks schedules the given tracks' notes from pulse zero at
// the export sample rate. The total length runs to the last note-off.
func exportableFromTracks(state *cacophony.State, tracks []*cacophony.MidiTrack, framerate float32) Exportable {
	var ex Exportable
	for _, track := range tracks {
		for _, note := range track.PlaybackNotes(0) {
			start := state.Time.PpqToSamples(note.Start, framerate)
			end := state.Time.PpqToSamples(note.End, framerate)
			ex.Events.Enqueue(start, cacophony.NoteOnEvent{Channel: track.Channel, Key: note.Note, Velocity: note.Velocity})
			ex.Events.Enqueue(end, cacophony.NoteOffEvent{Channel: track.Channel, Key: note.Note})
			if end > ex.TotalSamples {
				ex.TotalSamples = end
			}
		}
	}
	ex.Events.Sort()
	return ex
}

// presetNames collects the preset names of the tracks' channels, in track
// order, for MIDI file metadata.
func (c *Conn) presetNames(state *cacophony.State) []string {
	var names []string
	for i := range state.Music.MidiTracks {
		if program, ok := c.State.Programs[state.Music.MidiTracks[i].Channel]; ok {
			names = append(names, program.PresetName)
		}
	}
	return names
}

// exportWorker is the single long-lived goroutine that renders export jobs.
// Jobs queue up on the channel, so exports are serialized, never concurrent.
func (c *Conn) exportWorker() {
	for job := range c.exportJobs {
		c.runExport(job)
	}
}

func (c *Conn) runExport(job exportJob) {
	defer func() {
		c.exportState.Set(ExportState{Phase: NotExporting})
		c.synthMu.Lock()
		c.synth.SetSampleRate(job.restoreRate)
		c.synthMu.Unlock()
	}()

	c.synthMu.Lock()
	c.synth.SetSampleRate(int(job.settings.Framerate))
	c.synthMu.Unlock()

	decayer := NewDecayer(int(job.settings.Framerate))
	ext := job.settings.Type.Extension()
	stem := strings.TrimSuffix(job.path, filepath.Ext(job.path))

	for i := range job.exportables {
		ex := &job.exportables[i]
		total := ex.TotalSamples
		buffer := cacophony.NewAudioBuffer(int(total))
		c.exportState.Set(ExportState{Phase: WritingAudio, TotalSamples: total})

		for t := uint64(0); t < total; t++ {
			c.synthMu.Lock()
			for _, ev := range ex.Events.Dequeue(t) {
				if err := c.synth.SendEvent(ev.Event); err != nil {
					c.log.Debug("dropped event during export", zap.Error(err))
				}
			}
			buffer[0][t], buffer[1][t] = c.synth.ReadNext()
			c.synthMu.Unlock()
			if t%progressInterval == 0 {
				c.exportState.Set(ExportState{Phase: WritingAudio, TotalSamples: total, ExportedSamples: t})
			}
		}
		// Note-offs land exactly at the total length, one sample past the
		// render loop. Flush them so the decay starts from released notes.
		c.synthMu.Lock()
		for _, ev := range ex.Events.Dequeue(total) {
			if err := c.synth.SendEvent(ev.Event); err != nil {
				c.log.Debug("dropped event during export", zap.Error(err))
			}
		}
		c.synthMu.Unlock()

		c.exportState.Set(ExportState{Phase: AppendingDecay, TotalSamples: total, ExportedSamples: total})
		decayer.Reset()
		for decayer.Decaying {
			c.synthMu.Lock()
			decayer.Decay(&buffer, c.synth)
			c.synthMu.Unlock()
		}

		c.exportState.Set(ExportState{Phase: WritingToDisk, TotalSamples: total, ExportedSamples: total})
		target := stem + ext
		if ex.Suffix != "" {
			target = fmt.Sprintf("%v_%v%v", stem, ex.Suffix, ext)
		}
		var err error
		switch job.settings.Type {
		case exporter.Wav:
			err = job.settings.Wav(target, &buffer)
		case exporter.MP3:
			err = job.settings.MP3(target, &buffer)
		case exporter.Ogg:
			err = job.settings.Ogg(target, &buffer)
		case exporter.Flac:
			err = job.settings.Flac(target, &buffer)
		default:
			err = fmt.Errorf("cannot render %v from the synthesizer", job.settings.Type)
		}
		if err != nil {
			c.log.Error("export failed", zap.String("path", target), zap.Error(err))
			return
		}
		c.exportState.Set(ExportState{Phase: Done, TotalSamples: total, ExportedSamples: total})
	}
}
