// Package exporter holds the user-facing export settings and the encoders
// that turn a rendered stereo buffer into an audio file on disk.
package exporter

import "fmt"

// ExportType selects the output container/codec.
type ExportType int

const (
	Wav ExportType = iota
	MP3
	Ogg
	Flac
	Mid
)

// Extension returns the file extension for the export type, with the dot.
func (e ExportType) Extension() string {
	switch e {
	case Wav:
		return ".wav"
	case MP3:
		return ".mp3"
	case Ogg:
		return ".ogg"
	case Flac:
		return ".flac"
	case Mid:
		return ".mid"
	}
	return ""
}

func (e ExportType) String() string {
	switch e {
	case Wav:
		return "wav"
	case MP3:
		return "mp3"
	case Ogg:
		return "ogg"
	case Flac:
		return "flac"
	case Mid:
		return "mid"
	}
	return "unknown"
}

// ParseExportType converts a format name to an ExportType.
func ParseExportType(s string) (ExportType, error) {
	for _, e := range []ExportType{Wav, MP3, Ogg, Flac, Mid} {
		if e.String() == s {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown export format %q", s)
}

// MultiFileSuffix is the policy for naming the per-track files of a
// multi-file export.
type MultiFileSuffix int

const (
	SuffixChannel MultiFileSuffix = iota
	SuffixPreset
	SuffixChannelAndPreset
)

// MP3BitRates is the ordered list of selectable MP3 bit rates, in kbit/s.
var MP3BitRates = [...]int{8, 16, 24, 32, 40, 48, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320}

// Metadata is written into the exported files where the container supports
// it. Empty strings are left out.
type Metadata struct {
	Title       string `yaml:"title"`
	Artist      string `yaml:"artist,omitempty"`
	Album       string `yaml:"album,omitempty"`
	Genre       string `yaml:"genre,omitempty"`
	Comment     string `yaml:"comment,omitempty"`
	TrackNumber *int   `yaml:"track_number,omitempty"`
}

// Exporter contains every export setting. It is copied by value into the
// export worker when an export starts, so edits made while an export is in
// flight do not affect it.
type Exporter struct {
	// Framerate is the export sample rate, which may differ from the live
	// playback rate.
	Framerate uint32   `yaml:"framerate"`
	Metadata  Metadata `yaml:"metadata"`
	// Copyright writes copyright info into formats that carry it.
	Copyright bool `yaml:"copyright,omitempty"`
	// MP3BitRateIndex indexes MP3BitRates.
	MP3BitRateIndex int `yaml:"mp3_bit_rate"`
	// MP3Quality is the LAME quality setting, 0 (best) to 9 (worst).
	MP3Quality int `yaml:"mp3_quality"`
	// OggQuality is 0 (worst) to 9 (best), mapped onto the encoder's
	// -0.2..1.0 quality range.
	OggQuality int  `yaml:"ogg_quality"`
	MultiFile  bool `yaml:"multi_file,omitempty"`
	// Suffix names the per-track files of a multi-file export.
	Suffix MultiFileSuffix `yaml:"multi_file_suffix"`
	Type   ExportType      `yaml:"export_type"`
}

// New returns an Exporter with the default settings.
func New() Exporter {
	return Exporter{
		Framerate:       44100,
		MP3BitRateIndex: 8, // 96 kbit/s
		MP3Quality:      0,
		OggQuality:      5,
	}
}
