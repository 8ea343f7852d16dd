package audio

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tversteeg/cacophony"
	"github.com/tversteeg/cacophony/exporter"
)

// exportBatch is one queued batch of commands for a multi-file export
// session driven through the live event queue.
type exportBatch struct {
	commands []Command
}

// QueueMultiFileExport schedules one wav stem per playable track. Each
// track becomes a batch that lays the track's notes on the live event queue
// and exports them; a trailing batch stops playback and pads every stem to
// the longest one. Batches are drained by Update, one at a time, between
// exports.
func (c *Conn) QueueMultiFileExport(state *cacophony.State, path string) {
	settings := c.Exporter
	settings.Type = exporter.Wav
	stem := strings.TrimSuffix(path, filepath.Ext(path))
	framerate := float32(settings.Framerate)

	seen := make(map[string]int)
	var paths []string
	var batches []exportBatch
	for _, track := range state.Music.PlayableTracks() {
		commands := []Command{SetFramerate{Framerate: settings.Framerate}}
		var total uint64
		for _, note := range track.PlaybackNotes(0) {
			start := state.Time.PpqToSamples(note.Start, framerate)
			end := state.Time.PpqToSamples(note.End, framerate)
			commands = append(commands, NoteOnAt{
				Channel:  track.Channel,
				Key:      note.Note,
				Velocity: note.Velocity,
				Start:    start,
				End:      end,
			})
			if end > total {
				total = end
			}
		}
		if total == 0 {
			continue
		}
		suffix := c.exportFileSuffix(&settings, track)
		seen[suffix]++
		if n := seen[suffix]; n > 1 {
			suffix = fmt.Sprintf("%v_%d", suffix, n)
		}
		trackPath := fmt.Sprintf("%v_%v%v", stem, suffix, settings.Type.Extension())
		paths = append(paths, trackPath)
		commands = append(commands,
			SoundOff{},
			exportScheduled{path: trackPath, settings: settings, totalSamples: total})
		batches = append(batches, exportBatch{commands: commands})
	}
	if len(batches) == 0 {
		return
	}
	batches = append(batches, exportBatch{commands: []Command{StopMusic{}, AppendSilences{Paths: paths}}})
	c.exportQueue = append(c.exportQueue, batches...)
}

// QueuedExports returns how many export batches are still waiting.
func (c *Conn) QueuedExports() int {
	return len(c.exportQueue)
}

// Update drains one queued export batch if no export is in flight. Call it
// once per foreground frame; it returns immediately while the worker is
// busy.
func (c *Conn) Update(state *cacophony.State) error {
	if c.exportState.Exporting() || len(c.exportQueue) == 0 {
		return nil
	}
	batch := c.exportQueue[0]
	c.exportQueue = c.exportQueue[1:]
	return c.Do(state, batch.commands)
}
