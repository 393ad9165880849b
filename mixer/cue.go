// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"math"
	"sync/atomic"

	"github.com/ik5/cuemix/audio"
	"github.com/ik5/cuemix/cueid"
)

// Cue is one loaded clip and its playback state.
//
// The playback fields belong to the render goroutine: every mutating method
// must be called from there (in practice through the bus while draining
// the command queue). After each mutation the cue republishes a snapshot
// through atomics, which State and Info read from any goroutine.
type Cue struct {
	id     cueid.ID
	source string
	pcm    *audio.PCM
	frames int

	state  State
	cursor int
	volume float32
	pan    float32
	loop   bool

	// Active fade: gain runs from fadeFrom to fadeTo over fadeTotal samples,
	// fadeRemaining of which are still to be rendered.
	fadeFrom      float64
	fadeTo        float64
	fadeRemaining int
	fadeTotal     int

	// xgain is the external (crossfade) multiplier held between spans that
	// carry no per-sample gain.
	xgain float32

	pubState  atomic.Uint32
	pubCursor atomic.Int64
	pubVolume atomic.Uint32
	pubPan    atomic.Uint32
	pubLoop   atomic.Bool
}

// NewCue wraps pcm as a stopped cue at full volume, centre pan.
// pcm must already be validated.
func NewCue(id cueid.ID, source string, pcm *audio.PCM) *Cue {
	c := &Cue{
		id:     id,
		source: source,
		pcm:    pcm,
		frames: pcm.Frames(),
		volume: 1,
		xgain:  1,
	}
	c.publish()

	return c
}

func (c *Cue) ID() cueid.ID { return c.id }

// State is the last published lifecycle state. Safe from any goroutine.
func (c *Cue) State() State { return State(c.pubState.Load()) }

func (c *Cue) publish() {
	c.pubState.Store(uint32(c.state))
	c.pubCursor.Store(int64(c.cursor))
	c.pubVolume.Store(math.Float32bits(c.volume))
	c.pubPan.Store(math.Float32bits(c.pan))
	c.pubLoop.Store(c.loop)
}

// Info is a point-in-time description of a cue.
type Info struct {
	ID         string
	Source     string
	State      State
	Duration   float64 // seconds
	Position   float64 // seconds
	Volume     float64
	Pan        float64
	Loop       bool
	SampleRate int
	Channels   int
}

// Info builds a snapshot from the published fields. Safe from any
// goroutine.
func (c *Cue) Info() Info {
	sr := float64(c.pcm.SampleRate)

	return Info{
		ID:         c.id.String(),
		Source:     c.source,
		State:      c.State(),
		Duration:   float64(c.frames) / sr,
		Position:   float64(c.pubCursor.Load()) / sr,
		Volume:     float64(math.Float32frombits(c.pubVolume.Load())),
		Pan:        float64(math.Float32frombits(c.pubPan.Load())),
		Loop:       c.pubLoop.Load(),
		SampleRate: c.pcm.SampleRate,
		Channels:   c.pcm.Channels(),
	}
}

// Start plays from the top when stopped, or continues when paused.
func (c *Cue) Start() {
	switch c.state {
	case Stopped:
		c.cursor = 0
		c.xgain = 1
		c.state = Playing
	case Paused:
		c.state = Playing
	default:
		return
	}
	c.publish()
}

// Stop halts playback and rewinds. A stopped cue is left untouched.
func (c *Cue) Stop() {
	if c.state == Stopped {
		return
	}
	c.stop()
	c.publish()
}

func (c *Cue) stop() {
	c.state = Stopped
	c.cursor = 0
	c.xgain = 1
	c.clearFade()
}

func (c *Cue) clearFade() {
	c.fadeFrom, c.fadeTo = 0, 0
	c.fadeRemaining, c.fadeTotal = 0, 0
}

func (c *Cue) Pause() {
	if c.state != Playing {
		return
	}
	c.state = Paused
	c.publish()
}

func (c *Cue) Resume() {
	if c.state != Paused {
		return
	}
	c.state = Playing
	c.publish()
}

// SetVolume clamps v into [0,1] and applies it immediately. During a
// fade-in the new level becomes the fade target; during a fade-out it is
// the level the cue returns to once stopped.
func (c *Cue) SetVolume(v float64) {
	if math.IsNaN(v) {
		return
	}
	c.volume = float32(clamp(v, 0, 1))
	if c.state == FadingIn {
		c.fadeTo = float64(c.volume)
	}
	c.publish()
}

// SetPan clamps p into [-1,1].
func (c *Cue) SetPan(p float64) {
	if math.IsNaN(p) {
		return
	}
	c.pan = float32(clamp(p, -1, 1))
	c.publish()
}

func (c *Cue) SetLoop(loop bool) {
	c.loop = loop
	c.publish()
}

// Seek moves the cursor of a playing or paused cue to the given time,
// clamped into the clip. Stopped cues always restart from the top, so
// seeking one has no effect.
func (c *Cue) Seek(seconds float64) {
	if c.state == Stopped || math.IsNaN(seconds) {
		return
	}
	pos := math.Round(seconds * float64(c.pcm.SampleRate))
	c.cursor = int(clamp(pos, 0, float64(c.frames-1)))
	c.publish()
}

// FadeIn ramps from silence up to the current volume over seconds. A
// stopped cue starts from the top.
func (c *Cue) FadeIn(seconds float64) {
	switch c.state {
	case Stopped:
		c.cursor = 0
		c.xgain = 1
	case Playing:
	default:
		return
	}
	c.beginFade(FadingIn, 0, float64(c.volume), seconds)
	c.publish()
}

// FadeOut ramps from the instantaneous gain down to silence over seconds
// and then stops the cue.
func (c *Cue) FadeOut(seconds float64) {
	var from float64
	switch c.state {
	case Playing:
		from = float64(c.volume)
	case FadingIn:
		from = c.fadeGain()
	default:
		return
	}
	c.beginFade(FadingOut, from, 0, seconds)
	c.publish()
}

func (c *Cue) beginFade(s State, from, to, seconds float64) {
	total := FadeSamples(seconds, c.pcm.SampleRate)
	c.state = s
	c.fadeFrom = from
	c.fadeTo = to
	c.fadeTotal = total
	c.fadeRemaining = total
}

// FadeSamples converts a fade length to samples, never less than one.
func FadeSamples(seconds float64, sampleRate int) int {
	if !(seconds > 0) {
		return 1
	}
	n := math.Round(seconds * float64(sampleRate))
	if n < 1 {
		return 1
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}

	return int(n)
}

// fadeGain is the gain for the next sample of the active fade.
func (c *Cue) fadeGain() float64 {
	done := c.fadeTotal - c.fadeRemaining
	return c.fadeFrom + (c.fadeTo-c.fadeFrom)*float64(done)/float64(c.fadeTotal)
}

// HoldGain sets the external multiplier used while no per-sample gain is
// supplied.
func (c *Cue) HoldGain(g float32) { c.xgain = g }

// Render adds n frames of this cue into out. ext, when non-nil, supplies a
// per-sample external gain of at least n values; otherwise the held gain
// applies. Render never allocates.
func (c *Cue) Render(out [][]float32, n int, ext []float32) {
	if n <= 0 {
		return
	}
	if ext != nil {
		c.xgain = ext[n-1]
	}
	if !c.state.Audible() {
		return
	}

	src := c.pcm.Data
	srcCh := len(src)
	outCh := len(out)
	panL, panR := float32(1), float32(1)
	if outCh > 1 {
		panL = 1 - max(0, c.pan)
		panR = 1 + min(0, c.pan)
	}

	for i := range n {
		g := c.volume
		if c.state.fading() {
			g = float32(c.fadeGain())
		}
		if ext != nil {
			g *= ext[i]
		} else {
			g *= c.xgain
		}

		for ch := range outCh {
			var s float32
			switch {
			case ch < srcCh:
				s = src[ch][c.cursor]
			case srcCh == 1 && ch == 1:
				s = src[0][c.cursor]
			default:
				continue
			}
			switch ch {
			case 0:
				out[0][i] += s * g * panL
			case 1:
				out[1][i] += s * g * panR
			default:
				out[ch][i] += s * g
			}
		}

		if c.state.fading() {
			c.fadeRemaining--
			if c.fadeRemaining <= 0 {
				if c.state == FadingOut {
					c.stop()
					break
				}
				c.state = Playing
				c.volume = float32(c.fadeTo)
				c.clearFade()
			}
		}

		c.cursor++
		if c.cursor >= c.frames {
			if !c.loop {
				c.stop()
				break
			}
			c.cursor = 0
		}
	}

	c.publish()
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
