package exporter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/tversteeg/cacophony"
)

func TestWavRoundTrip(t *testing.T) {
	buffer := cacophony.NewAudioBuffer(3)
	buffer[0][0], buffer[1][0] = 0.5, -0.5
	buffer[0][1], buffer[1][1] = 1, -1
	buffer[0][2], buffer[1][2] = 0, 0.25

	e := New()
	path := filepath.Join(t.TempDir(), "out.wav")
	if err := e.Wav(path, &buffer); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	d := wav.NewDecoder(f)
	buf, err := d.FullPCMBuffer()
	if err != nil {
		t.Fatal(err)
	}
	if d.SampleRate != 44100 {
		t.Errorf("got sample rate %d, want 44100", d.SampleRate)
	}
	if len(buf.Data) != 6 {
		t.Fatalf("got %d samples, want 6", len(buf.Data))
	}
	want := []int{16383, -16384, 32767, -32768, 0, 8191}
	for i, w := range want {
		if buf.Data[i] != w {
			t.Errorf("sample %d: got %d, want %d", i, buf.Data[i], w)
		}
	}
}

func TestAppendSilences(t *testing.T) {
	dir := t.TempDir()
	e := New()

	long := cacophony.NewAudioBuffer(100)
	short := cacophony.NewAudioBuffer(40)
	longPath := filepath.Join(dir, "long.wav")
	shortPath := filepath.Join(dir, "short.wav")
	if err := e.Wav(longPath, &long); err != nil {
		t.Fatal(err)
	}
	if err := e.Wav(shortPath, &short); err != nil {
		t.Fatal(err)
	}

	if err := AppendSilences([]string{longPath, shortPath}); err != nil {
		t.Fatal(err)
	}
	for _, path := range []string{longPath, shortPath} {
		f, err := os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		buf, err := wav.NewDecoder(f).FullPCMBuffer()
		f.Close()
		if err != nil {
			t.Fatal(err)
		}
		if got := len(buf.Data) / 2; got != 100 {
			t.Errorf("%v has %d frames after padding, want 100", filepath.Base(path), got)
		}
	}
}
