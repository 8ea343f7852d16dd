package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/tversteeg/cacophony"
	"github.com/tversteeg/cacophony/audio"
	"github.com/tversteeg/cacophony/exporter"
	"github.com/tversteeg/cacophony/synth"
	"github.com/tversteeg/cacophony/version"
)

func main() {
	sf2 := flag.String("sf2", "", "SoundFont file loaded for every track channel. Required unless the format is mid.")
	out := flag.String("o", "", "Output file path. Defaults to the song file with the chosen format's extension.")
	format := flag.String("f", "wav", "Export format: wav, mp3, ogg, flac or mid.")
	rate := flag.Uint("rate", cacophony.DefaultFramerate, "Export sample rate in Hz.")
	multi := flag.Bool("multi", false, "Render every playable track to its own file.")
	title := flag.String("title", "", "Title metadata. Defaults to the song name.")
	versionFlag := flag.Bool("v", false, "Print version.")
	help := flag.Bool("h", false, "Show help.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if flag.NArg() != 1 || *help {
		flag.Usage()
		os.Exit(0)
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	if err := render(log, flag.Arg(0), *sf2, *out, *format, uint32(*rate), *multi, *title); err != nil {
		log.Fatal("render failed", zap.Error(err))
	}
}

func render(log *zap.Logger, songPath, sf2, out, format string, rate uint32, multi bool, title string) error {
	exportType, err := exporter.ParseExportType(format)
	if err != nil {
		return err
	}
	if sf2 == "" && exportType != exporter.Mid {
		return fmt.Errorf("a SoundFont is required to render %v", exportType)
	}

	songBytes, err := os.ReadFile(songPath)
	if err != nil {
		return fmt.Errorf("could not read song %v: %w", songPath, err)
	}
	var state cacophony.State
	if err := yaml.Unmarshal(songBytes, &state); err != nil {
		return fmt.Errorf("could not parse song %v: %w", songPath, err)
	}

	conn := audio.NewConn(synth.New(int(rate)), log)
	if sf2 != "" {
		var commands []audio.Command
		for _, track := range state.Music.MidiTracks {
			commands = append(commands, audio.LoadSoundFont{Channel: track.Channel, Path: sf2})
		}
		if err := conn.Do(&state, commands); err != nil {
			return err
		}
	}

	if out == "" {
		out = strings.TrimSuffix(songPath, filepath.Ext(songPath)) + exportType.Extension()
	}
	if title == "" {
		title = state.Music.Name
	}
	settings := conn.Exporter
	settings.Framerate = rate
	settings.Type = exportType
	settings.MultiFile = multi
	settings.Metadata.Title = title

	log.Info("rendering", zap.String("song", songPath), zap.String("out", out),
		zap.Stringer("format", exportType), zap.Uint32("rate", rate))
	if err := conn.Do(&state, []audio.Command{audio.Export{Path: out, Settings: settings}}); err != nil {
		return err
	}
	for conn.Exporting() {
		es := conn.ExportState()
		if es.Phase == audio.WritingAudio && es.TotalSamples > 0 {
			log.Info("progress", zap.Stringer("phase", es.Phase),
				zap.Uint64("samples", es.ExportedSamples), zap.Uint64("total", es.TotalSamples))
		} else {
			log.Info("progress", zap.Stringer("phase", es.Phase))
		}
		time.Sleep(500 * time.Millisecond)
	}
	log.Info("done", zap.String("out", out))
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Renders a cacophony song file to an audio or MIDI file.\nUsage: %s [flags] songfile\n", os.Args[0])
	flag.PrintDefaults()
}
