// SPDX-License-Identifier: EPL-2.0

package cuemix

import (
	"github.com/ik5/cuemix/command"
	"github.com/ik5/cuemix/crossfade"
)

// Render fills the first frames samples of every channel in out. It must
// only be called from the render goroutine, one call at a time. Channels
// in out beyond the session's are zeroed; frames is cut to the shortest
// channel.
//
// A panic inside the mixer is recovered: the callback yields silence and
// the fault is counted in the telemetry.
func (e *Engine) Render(out [][]float32, frames int) {
	for _, ch := range out {
		frames = min(frames, len(ch))
	}
	if frames <= 0 || len(out) == 0 {
		return
	}

	start := e.now()
	defer func() {
		if r := recover(); r != nil {
			for _, ch := range out {
				clear(ch[:frames])
			}
			e.sampler.Fault()
		}
		end := e.now()
		e.sampler.Record(frames, end.Sub(start), end)
	}()

	e.bus.Adopt()
	e.drain()

	nch := min(len(out), e.channels)
	view := e.view[:nch]
	for off := 0; off < frames; {
		n := e.fader.Prepare(min(frames-off, e.maxBlock))
		for ch := range view {
			view[ch] = out[ch][off : off+n]
		}
		e.bus.Render(view, n, e.fader)
		e.fader.Settle(e.bus)
		off += n
	}
	for ch := nch; ch < len(out); ch++ {
		clear(out[ch][:frames])
	}
}

// drain applies the commands queued before this callback. It stops after
// one queue's worth so a busy producer cannot stall the callback.
func (e *Engine) drain() {
	for range e.queue.Cap() {
		if !e.queue.Pop(&e.msg) {
			return
		}
		e.apply(&e.msg)
	}
}

func (e *Engine) apply(m *command.Message) {
	b := e.bus
	switch m.Kind {
	case command.StartCue:
		b.StartCue(m.Cue)
	case command.StopCue:
		b.StopCue(m.Cue)
	case command.PauseCue:
		b.PauseCue(m.Cue)
	case command.ResumeCue:
		b.ResumeCue(m.Cue)
	case command.SetVolume:
		b.SetCueVolume(m.Cue, m.F)
	case command.SetPan:
		b.SetCuePan(m.Cue, m.F)
	case command.SetLoop:
		b.SetCueLoop(m.Cue, m.I != 0)
	case command.FadeIn:
		b.FadeInCue(m.Cue, m.F)
	case command.FadeOut:
		b.FadeOutCue(m.Cue, m.F)
	case command.Seek:
		b.SeekCue(m.Cue, m.F)
	case command.LoadBuffer:
		b.Adopt()
	case command.StartCrossfade:
		e.fader.Start(crossfadeOp(m), b)
		e.xfadeStarts.Add(-1)
	case command.QueueCrossfade:
		e.fader.Enqueue(crossfadeOp(m), b)
		e.xfadeInFlight.Add(-1)
	case command.StopCrossfade:
		e.fader.Stop()
	case command.ClearCrossfades:
		e.fader.ClearQueue()
	case command.StopAll:
		e.fader.Stop()
		e.fader.ClearQueue()
		b.StopAll()
	case command.PauseAll:
		b.PauseAll()
	case command.ResumeAll:
		b.ResumeAll()
	}
}

func crossfadeOp(m *command.Message) crossfade.Op {
	return crossfade.Op{
		From:    m.Cue,
		To:      m.Target,
		Seconds: m.F,
		Curve:   crossfade.Curve(m.I),
	}
}
