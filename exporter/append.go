package exporter

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// AppendSilences pads every wav file in paths with trailing silence so they
// all share the length of the longest one. Multi-file stems stay aligned
// when loaded side by side.
func AppendSilences(paths []string) error {
	buffers := make([]*audio.IntBuffer, len(paths))
	longest := 0
	for i, path := range paths {
		buf, err := readWav(path)
		if err != nil {
			return err
		}
		buffers[i] = buf
		if frames := buf.NumFrames(); frames > longest {
			longest = frames
		}
	}
	for i, path := range paths {
		buf := buffers[i]
		if buf.NumFrames() >= longest {
			continue
		}
		pad := (longest - buf.NumFrames()) * buf.Format.NumChannels
		buf.Data = append(buf.Data, make([]int, pad)...)
		if err := writeWav(path, buf); err != nil {
			return err
		}
	}
	return nil
}

func readWav(path string) (*audio.IntBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %v: %w", path, err)
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("could not decode %v: %w", path, err)
	}
	buf.SourceBitDepth = int(dec.BitDepth)
	return buf, nil
}

func writeWav(path string, buf *audio.IntBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %v: %w", path, err)
	}
	defer f.Close()
	enc := wav.NewEncoder(f, buf.Format.SampleRate, buf.SourceBitDepth, buf.Format.NumChannels, 1)
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return fmt.Errorf("could not write wav data to %v: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("could not finalize %v: %w", path, err)
	}
	return nil
}
