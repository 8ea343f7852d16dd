package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/tversteeg/cacophony"
	"github.com/tversteeg/cacophony/audio"
	"github.com/tversteeg/cacophony/synth"
	"github.com/tversteeg/cacophony/version"
)

func main() {
	sf2 := flag.String("sf2", "", "SoundFont file loaded for every track channel. Required.")
	rate := flag.Uint("rate", cacophony.DefaultFramerate, "Playback sample rate in Hz.")
	versionFlag := flag.Bool("v", false, "Print version.")
	help := flag.Bool("h", false, "Show help.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if flag.NArg() != 1 || *help || *sf2 == "" {
		flag.Usage()
		os.Exit(0)
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	if err := play(log, flag.Arg(0), *sf2, int(*rate)); err != nil {
		log.Fatal("playback failed", zap.Error(err))
	}
}

func play(log *zap.Logger, songPath, sf2 string, rate int) error {
	songBytes, err := os.ReadFile(songPath)
	if err != nil {
		return fmt.Errorf("could not read song %v: %w", songPath, err)
	}
	var state cacophony.State
	if err := yaml.Unmarshal(songBytes, &state); err != nil {
		return fmt.Errorf("could not parse song %v: %w", songPath, err)
	}

	conn := audio.NewConn(synth.New(rate), log)
	commands := []audio.Command{}
	for _, track := range state.Music.MidiTracks {
		commands = append(commands, audio.LoadSoundFont{Channel: track.Channel, Path: sf2})
	}
	if err := conn.Do(&state, commands); err != nil {
		return err
	}

	player, err := conn.OpenPlayer()
	if err != nil {
		return err
	}
	defer player.Close()

	log.Info("playing", zap.String("song", songPath), zap.Uint64("from", state.Time.Playback))
	if err := conn.Do(&state, []audio.Command{audio.PlayMusic{Time: state.Time.Playback}}); err != nil {
		return err
	}
	for conn.PlayState().Phase != audio.NotPlaying {
		time.Sleep(100 * time.Millisecond)
	}
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Plays a cacophony song file through the system audio device.\nUsage: %s [flags] songfile\n", os.Args[0])
	flag.PrintDefaults()
}
