package exporter

import (
	"fmt"
	"os"
	"strconv"
	"time"
	"unsafe"

	"github.com/tversteeg/cacophony"
	"github.com/xlab/vorbis-go/vorbis"
)

const oggSerial = 0x63616361

// Ogg writes the buffer to path as an Ogg Vorbis stream. The comment header
// carries the export metadata.
func (e *Exporter) Ogg(path string, buffer *cacophony.AudioBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %v: %w", path, err)
	}
	defer f.Close()

	var info vorbis.Info
	vorbis.InfoInit(&info)
	defer vorbis.InfoClear(&info)
	quality := (float32(e.OggQuality)/9.0)*1.2 - 0.2
	if ret := vorbis.EncodeInitVbr(&info, 2, int(e.Framerate), quality); ret != 0 {
		return fmt.Errorf("could not init vorbis encoder (code %d)", ret)
	}

	var comment vorbis.Comment
	vorbis.CommentInit(&comment)
	defer vorbis.CommentClear(&comment)
	e.addVorbisComments(&comment)

	var dsp vorbis.DspState
	if ret := vorbis.AnalysisInit(&dsp, &info); ret != 0 {
		return fmt.Errorf("could not init vorbis analysis (code %d)", ret)
	}
	defer vorbis.DspClear(&dsp)
	var block vorbis.Block
	vorbis.BlockInit(&dsp, &block)
	defer vorbis.BlockClear(&block)

	var stream vorbis.OggStreamState
	vorbis.OggStreamInit(&stream, oggSerial)
	defer vorbis.OggStreamClear(&stream)

	// The three header packets must land on their own page before audio.
	var header, headerComment, headerCode vorbis.OggPacket
	vorbis.AnalysisHeaderout(&dsp, &comment, &header, &headerComment, &headerCode)
	vorbis.OggStreamPacketin(&stream, &header)
	vorbis.OggStreamPacketin(&stream, &headerComment)
	vorbis.OggStreamPacketin(&stream, &headerCode)
	var page vorbis.OggPage
	for vorbis.OggStreamFlush(&stream, &page) != 0 {
		if err := writePage(f, &page); err != nil {
			return err
		}
	}

	const chunk = 1024
	for pos := 0; ; pos += chunk {
		n := buffer.Len() - pos
		if n > chunk {
			n = chunk
		}
		if n <= 0 {
			vorbis.AnalysisWrote(&dsp, 0) // end of stream
		} else {
			// AnalysisBuffer hands back a C float** that has to be viewed
			// through unsafe.Slice before the channels can be filled.
			analysis := unsafe.Slice(vorbis.AnalysisBuffer(&dsp, chunk), 2)
			left := unsafe.Slice(analysis[0], chunk)
			right := unsafe.Slice(analysis[1], chunk)
			for i := 0; i < n; i++ {
				left[i] = buffer[0][pos+i]
				right[i] = buffer[1][pos+i]
			}
			vorbis.AnalysisWrote(&dsp, int32(n))
		}
		for vorbis.AnalysisBlockout(&dsp, &block) == 1 {
			vorbis.Analysis(&block, nil)
			vorbis.BitrateAddblock(&block)
			var packet vorbis.OggPacket
			for vorbis.BitrateFlushpacket(&dsp, &packet) != 0 {
				vorbis.OggStreamPacketin(&stream, &packet)
				for vorbis.OggStreamPageout(&stream, &page) != 0 {
					if err := writePage(f, &page); err != nil {
						return err
					}
				}
			}
		}
		if n <= 0 {
			break
		}
	}
	for vorbis.OggStreamFlush(&stream, &page) != 0 {
		if err := writePage(f, &page); err != nil {
			return err
		}
	}
	return nil
}

func writePage(f *os.File, page *vorbis.OggPage) error {
	page.Deref()
	if _, err := f.Write(page.Header[:page.HeaderLen]); err != nil {
		return fmt.Errorf("could not write ogg page header: %w", err)
	}
	if _, err := f.Write(page.Body[:page.BodyLen]); err != nil {
		return fmt.Errorf("could not write ogg page body: %w", err)
	}
	return nil
}

func (e *Exporter) addVorbisComments(comment *vorbis.Comment) {
	year := time.Now().Year()
	vorbis.CommentAddTag(comment, "title", e.Metadata.Title)
	vorbis.CommentAddTag(comment, "date", strconv.Itoa(year))
	if e.Metadata.Artist != "" {
		vorbis.CommentAddTag(comment, "artist", e.Metadata.Artist)
		if e.Copyright {
			vorbis.CommentAddTag(comment, "copyright",
				fmt.Sprintf("Copyright %d %s", year, e.Metadata.Artist))
		}
	}
	if e.Metadata.Album != "" {
		vorbis.CommentAddTag(comment, "album", e.Metadata.Album)
	}
	if e.Metadata.Genre != "" {
		vorbis.CommentAddTag(comment, "genre", e.Metadata.Genre)
	}
	if e.Metadata.TrackNumber != nil {
		vorbis.CommentAddTag(comment, "tracknumber", strconv.Itoa(*e.Metadata.TrackNumber))
	}
	if e.Metadata.Comment != "" {
		vorbis.CommentAddTag(comment, "description", e.Metadata.Comment)
	}
}
