package audio

import (
	"math"
	"sync/atomic"
)

// SharedSample is the most recent stereo sample, written by the audio
// callback and read by the foreground for level display. Both channels are
// packed into one word so a reader never sees a torn pair.
type SharedSample struct {
	v atomic.Uint64
}

func (s *SharedSample) Set(left, right float32) {
	s.v.Store(uint64(math.Float32bits(left))<<32 | uint64(math.Float32bits(right)))
}

func (s *SharedSample) Get() (left, right float32) {
	v := s.v.Load()
	return math.Float32frombits(uint32(v >> 32)), math.Float32frombits(uint32(v))
}
