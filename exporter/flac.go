package exporter

import (
	"fmt"
	"os"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
	"github.com/tversteeg/cacophony"
)

const flacBlockSize = 4096

// Flac writes the buffer to path losslessly as 16-bit stereo FLAC.
func (e *Exporter) Flac(path string, buffer *cacophony.AudioBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %v: %w", path, err)
	}
	defer f.Close()

	info := &meta.StreamInfo{
		BlockSizeMin:  flacBlockSize,
		BlockSizeMax:  flacBlockSize,
		SampleRate:    e.Framerate,
		NChannels:     2,
		BitsPerSample: 16,
		NSamples:      uint64(buffer.Len()),
	}
	enc, err := flac.NewEncoder(f, info)
	if err != nil {
		return fmt.Errorf("could not create flac encoder for %v: %w", path, err)
	}

	for pos, num := 0, uint64(0); pos < buffer.Len(); num++ {
		n := buffer.Len() - pos
		if n > flacBlockSize {
			n = flacBlockSize
		}
		fr := &frame.Frame{Header: frame.Header{
			BlockSize:     uint16(n),
			SampleRate:    e.Framerate,
			Channels:      frame.ChannelsLR,
			BitsPerSample: 16,
			Num:           num,
		}}
		for ch := 0; ch < 2; ch++ {
			samples := make([]int32, n)
			for i := 0; i < n; i++ {
				samples[i] = int32(cacophony.ToI16(buffer[ch][pos+i]))
			}
			fr.Subframes = append(fr.Subframes, &frame.Subframe{
				SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
				Samples:   samples,
				NSamples:  n,
			})
		}
		if err := enc.WriteFrame(fr); err != nil {
			enc.Close()
			return fmt.Errorf("could not write flac frame to %v: %w", path, err)
		}
		pos += n
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("could not finalize %v: %w", path, err)
	}
	return nil
}
