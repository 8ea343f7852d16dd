package exporter

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/tversteeg/cacophony"
)

// Wav writes the buffer to path as 16-bit signed PCM stereo.
func (e *Exporter) Wav(path string, buffer *cacophony.AudioBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %v: %w", path, err)
	}
	defer f.Close()
	enc := wav.NewEncoder(f, int(e.Framerate), 16, 2, 1)
	if err := enc.Write(interleave(buffer, int(e.Framerate))); err != nil {
		enc.Close()
		return fmt.Errorf("could not write wav data to %v: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("could not finalize %v: %w", path, err)
	}
	return nil
}

func interleave(buffer *cacophony.AudioBuffer, framerate int) *audio.IntBuffer {
	data := make([]int, buffer.Len()*2)
	for i := 0; i < buffer.Len(); i++ {
		data[i*2] = int(cacophony.ToI16(buffer[0][i]))
		data[i*2+1] = int(cacophony.ToI16(buffer[1][i]))
	}
	return &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: framerate},
		Data:           data,
		SourceBitDepth: 16,
	}
}
