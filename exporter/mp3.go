package exporter

import (
	"encoding/binary"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/bogem/id3v2/v2"
	"github.com/tversteeg/cacophony"
	lame "github.com/viert/go-lame"
)

// MP3 writes the buffer to path as an MP3 stream followed by an ID3v2.4
// tag carrying the export metadata.
func (e *Exporter) MP3(path string, buffer *cacophony.AudioBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %v: %w", path, err)
	}
	defer f.Close()

	enc := lame.NewEncoder(f)
	defer enc.Close()
	if err := enc.SetNumChannels(2); err != nil {
		return fmt.Errorf("could not set mp3 channel count: %w", err)
	}
	if err := enc.SetInSamplerate(int(e.Framerate)); err != nil {
		return fmt.Errorf("could not set mp3 sample rate: %w", err)
	}
	if err := enc.SetBrate(MP3BitRates[e.MP3BitRateIndex]); err != nil {
		return fmt.Errorf("could not set mp3 bit rate: %w", err)
	}
	if err := enc.SetQuality(e.MP3Quality); err != nil {
		return fmt.Errorf("could not set mp3 quality: %w", err)
	}

	// LAME consumes interleaved 16-bit little-endian PCM.
	pcm := make([]int16, buffer.Len()*2)
	for i := 0; i < buffer.Len(); i++ {
		pcm[i*2] = cacophony.ToI16(buffer[0][i])
		pcm[i*2+1] = cacophony.ToI16(buffer[1][i])
	}
	if err := binary.Write(enc, binary.LittleEndian, pcm); err != nil {
		return fmt.Errorf("could not encode mp3 data for %v: %w", path, err)
	}
	if _, err := enc.Flush(); err != nil {
		return fmt.Errorf("could not flush mp3 data for %v: %w", path, err)
	}

	if err := e.writeID3Tag(f); err != nil {
		return fmt.Errorf("could not write ID3 tag to %v: %w", path, err)
	}
	return nil
}

// writeID3Tag appends an ID3v2.4 tag after the audio stream.
func (e *Exporter) writeID3Tag(f *os.File) error {
	tag := id3v2.NewEmptyTag()
	tag.SetVersion(4)
	tag.SetTitle(e.Metadata.Title)
	tag.SetYear(strconv.Itoa(time.Now().Year()))
	if e.Metadata.Artist != "" {
		tag.SetArtist(e.Metadata.Artist)
	}
	if e.Metadata.Album != "" {
		tag.SetAlbum(e.Metadata.Album)
	}
	if e.Metadata.Genre != "" {
		tag.SetGenre(e.Metadata.Genre)
	}
	if e.Metadata.TrackNumber != nil {
		tag.AddTextFrame(tag.CommonID("Track number/Position in set"),
			tag.DefaultEncoding(), strconv.Itoa(*e.Metadata.TrackNumber))
	}
	_, err := tag.WriteTo(f)
	return err
}
