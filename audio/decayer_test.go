package audio

import (
	"testing"

	"github.com/tversteeg/cacophony"
)

func TestDecayStopsOnSilence(t *testing.T) {
	synth := newFakeSynth()
	d := NewDecayer(1000)
	buffer := cacophony.NewAudioBuffer(0)
	d.Reset()
	for d.Decaying {
		d.Decay(&buffer, synth)
	}
	// A silent synthesizer satisfies the minimum run within one block.
	if got := buffer.Len(); got != decayBlock {
		t.Errorf("appended %d samples, want %d", got, decayBlock)
	}
}

func TestDecayCapsNonSilentSynth(t *testing.T) {
	synth := newFakeSynth()
	synth.active = 1 // holds a constant level forever
	d := NewDecayer(100)
	buffer := cacophony.NewAudioBuffer(0)
	d.Reset()
	for d.Decaying {
		d.Decay(&buffer, synth)
	}
	want := 100 * maxDecaySeconds
	if got := buffer.Len(); got != want {
		t.Errorf("appended %d samples, want the cap of %d", got, want)
	}
}

func TestDecayDetectsLateSilence(t *testing.T) {
	synth := newFakeSynth()
	synth.active = 1
	d := NewDecayer(1000)
	buffer := cacophony.NewAudioBuffer(0)
	d.Reset()
	d.Decay(&buffer, synth)
	if !d.Decaying {
		t.Fatal("decay finished while the synthesizer was still sounding")
	}
	synth.active = 0
	for d.Decaying {
		d.Decay(&buffer, synth)
	}
	if got := buffer.Len(); got != 2*decayBlock {
		t.Errorf("appended %d samples, want %d", got, 2*decayBlock)
	}
}
