package cacophony

import "testing"

func TestPpqToSamples(t *testing.T) {
	tests := []struct {
		bpm       uint32
		ppq       uint64
		framerate float32
		want      uint64
	}{
		{120, 0, 44100, 0},
		// One beat at 120 BPM is half a second.
		{120, PPQ, 44100, 22050},
		{120, PPQ / 2, 44100, 11025},
		{60, PPQ, 44100, 44100},
		{120, 4 * PPQ, 48000, 96000},
	}
	for _, test := range tests {
		time := Time{BPM: test.bpm}
		if got := time.PpqToSamples(test.ppq, test.framerate); got != test.want {
			t.Errorf("PpqToSamples(%d) at %d BPM and %v Hz: got %d, want %d",
				test.ppq, test.bpm, test.framerate, got, test.want)
		}
	}
}
