package audio

import "sync/atomic"

// PlayPhase is the live playback phase.
type PlayPhase int

const (
	NotPlaying PlayPhase = iota
	Playing
	Decaying
)

// PlayState is the global live-playback state. Start is the absolute sample
// time playback started from and is only meaningful while Playing.
type PlayState struct {
	Phase PlayPhase
	Start uint64
}

// SharedPlayState is a play state cell shared between the foreground
// command handling and the audio callback. Writes are atomic swaps of the
// whole value, never partial mutations.
type SharedPlayState struct {
	p atomic.Pointer[PlayState]
}

func (s *SharedPlayState) Get() PlayState {
	if v := s.p.Load(); v != nil {
		return *v
	}
	return PlayState{Phase: NotPlaying}
}

func (s *SharedPlayState) Set(state PlayState) {
	s.p.Store(&state)
}
