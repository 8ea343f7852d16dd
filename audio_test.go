package cacophony

import "testing"

func TestToI16(t *testing.T) {
	tests := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32768},
		{0.5, 16383},
		{-0.5, -16384},
		{2, 32767}, // clamped
		{-2, -32768},
	}
	for _, test := range tests {
		if got := ToI16(test.in); got != test.want {
			t.Errorf("ToI16(%v): got %d, want %d", test.in, got, test.want)
		}
	}
}

func TestAudioBufferAppend(t *testing.T) {
	b := NewAudioBuffer(2)
	b.Append(0.5, -0.5)
	if b.Len() != 3 {
		t.Fatalf("got %d frames, want 3", b.Len())
	}
	if b[0][2] != 0.5 || b[1][2] != -0.5 {
		t.Errorf("got appended frame (%v, %v), want (0.5, -0.5)", b[0][2], b[1][2])
	}
}
