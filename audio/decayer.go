package audio

import (
	"github.com/tversteeg/cacophony"
	"github.com/viterin/vek/vek32"
)

const (
	// decayThreshold is the amplitude under which a channel counts as
	// silent.
	decayThreshold = 0.001
	// decayBlock is how many continuation samples are pulled from the
	// synthesizer per Decay call.
	decayBlock = 1024
	// maxDecaySeconds caps the decay tail so a non-decaying patch cannot
	// run the render forever.
	maxDecaySeconds = 30
)

// Decayer decides when residual audio after the last note-off has faded.
// It keeps pulling continuation samples from the synthesizer and declares
// the tail finished once both stereo channels have stayed under the
// amplitude threshold for a minimum run of consecutive samples, or once the
// hard cap on extra samples is reached.
type Decayer struct {
	// Decaying is true while the tail is still being appended. Set it
	// before the first Decay call; Decay clears it when the tail is done.
	Decaying bool

	minRun   int
	maxExtra int
	extra    int
	runs     [2]int

	left, right, abs [decayBlock]float32
}

func NewDecayer(framerate int) *Decayer {
	return &Decayer{
		minRun:   framerate / 10,
		maxExtra: framerate * maxDecaySeconds,
	}
}

// Reset prepares the decayer for a new tail.
func (d *Decayer) Reset() {
	d.Decaying = true
	d.extra = 0
	d.runs = [2]int{}
}

// Decay pulls one block of continuation samples from the synthesizer,
// appends them to the buffer, and updates the silence detection. The caller
// holds the synthesizer for the duration of the call.
func (d *Decayer) Decay(buffer *cacophony.AudioBuffer, synth cacophony.Synth) {
	n := decayBlock
	if remaining := d.maxExtra - d.extra; n > remaining {
		n = remaining
	}
	if n <= 0 {
		d.Decaying = false
		return
	}
	for i := 0; i < n; i++ {
		d.left[i], d.right[i] = synth.ReadNext()
	}
	buffer[0] = append(buffer[0], d.left[:n]...)
	buffer[1] = append(buffer[1], d.right[:n]...)
	d.runs[0] = silentRun(d.runs[0], d.left[:n], d.abs[:n])
	d.runs[1] = silentRun(d.runs[1], d.right[:n], d.abs[:n])
	d.extra += n
	if (d.runs[0] >= d.minRun && d.runs[1] >= d.minRun) || d.extra >= d.maxExtra {
		d.Decaying = false
	}
}

// silentRun returns the length of the below-threshold sample run at the end
// of the block, continuing the given run from previous blocks.
func silentRun(run int, block, abs []float32) int {
	vek32.Abs_Into(abs, block)
	if vek32.Max(abs) < decayThreshold {
		return run + len(block)
	}
	trailing := 0
	for i := len(abs) - 1; i >= 0 && abs[i] < decayThreshold; i-- {
		trailing++
	}
	return trailing
}
