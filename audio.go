package cacophony

import "math"

// ToI16 converts a float sample to 16-bit PCM, scaling by 32767.5 and
// truncating toward negative infinity.
func ToI16(sample float32) int16 {
	v := math.Floor(float64(sample) * 32767.5)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// AudioBuffer is rendered stereo audio as two deinterleaved channels:
// index 0 is left, index 1 is right. The channels always have equal length.
type AudioBuffer [2][]float32

// NewAudioBuffer returns a buffer with both channels allocated to the given
// number of frames.
func NewAudioBuffer(frames int) AudioBuffer {
	return AudioBuffer{make([]float32, frames), make([]float32, frames)}
}

// Append adds one stereo sample to the buffer.
func (b *AudioBuffer) Append(left, right float32) {
	b[0] = append(b[0], left)
	b[1] = append(b[1], right)
}

// Len returns the buffer length in sample frames.
func (b *AudioBuffer) Len() int {
	return len(b[0])
}
