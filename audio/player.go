package audio

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ebitengine/oto/v3"
	"github.com/tversteeg/cacophony"
)

// Player feeds the system audio device. It implements io.Reader over 16-bit
// little-endian stereo frames; the device pulls at its own pace, so the
// Player is the real-time side of the Conn.
type Player struct {
	conn   *Conn
	player *oto.Player

	time      uint64
	phase     PlayPhase
	silentRun int
	minRun    int
}

var _ io.Reader = (*Player)(nil)

// OpenPlayer opens the default audio device at the live sample rate and
// starts pulling samples.
func (c *Conn) OpenPlayer() (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   int(c.framerate),
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("could not open audio device: %w", err)
	}
	<-ready
	p := &Player{conn: c, minRun: int(c.framerate) / 10}
	p.player = ctx.NewPlayer(p)
	p.player.Play()
	c.player = p
	return p, nil
}

func (p *Player) Close() error {
	if p.player != nil {
		return p.player.Close()
	}
	return nil
}

func (p *Player) Read(buf []byte) (int, error) {
	n := len(buf) / 4 * 4
	for i := 0; i < n; i += 4 {
		left, right := p.next()
		binary.LittleEndian.PutUint16(buf[i:], uint16(cacophony.ToI16(left)))
		binary.LittleEndian.PutUint16(buf[i+2:], uint16(cacophony.ToI16(right)))
	}
	return n, nil
}

// next produces one stereo frame and advances the playback state machine.
func (p *Player) next() (float32, float32) {
	c := p.conn
	// During an export the synthesizer renders offline at the export rate,
	// so the live output stays silent.
	if c.exportState.Exporting() {
		return 0, 0
	}
	state := c.playState.Get()
	switch state.Phase {
	case Playing:
		if p.phase != Playing {
			p.time = state.Start
			p.silentRun = 0
		}
		p.phase = Playing
		c.queueMu.Lock()
		events := c.queue.Dequeue(p.time)
		empty := c.queue.IsEmpty()
		c.synthMu.Lock()
		for _, ev := range events {
			// A note on an unassigned channel is not an error here.
			_ = c.synth.SendEvent(ev.Event)
		}
		left, right := c.synth.ReadNext()
		c.synthMu.Unlock()
		c.queueMu.Unlock()
		p.time++
		if empty {
			c.playState.Set(PlayState{Phase: Decaying})
		}
		c.sample.Set(left, right)
		return left, right
	case Decaying:
		if p.phase != Decaying {
			p.silentRun = 0
		}
		p.phase = Decaying
		c.synthMu.Lock()
		left, right := c.synth.ReadNext()
		c.synthMu.Unlock()
		if abs32(left) < decayThreshold && abs32(right) < decayThreshold {
			p.silentRun++
			if p.silentRun >= p.minRun {
				c.playState.Set(PlayState{Phase: NotPlaying})
			}
		} else {
			p.silentRun = 0
		}
		c.sample.Set(left, right)
		return left, right
	default:
		p.phase = NotPlaying
		c.sample.Set(0, 0)
		return 0, 0
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
