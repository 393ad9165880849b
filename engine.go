// SPDX-License-Identifier: EPL-2.0

package cuemix

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ik5/cuemix/audio"
	"github.com/ik5/cuemix/command"
	"github.com/ik5/cuemix/crossfade"
	"github.com/ik5/cuemix/cueid"
	"github.com/ik5/cuemix/mixer"
	"github.com/ik5/cuemix/telemetry"
)

// Engine is one playback session.
type Engine struct {
	sampleRate int
	channels   int
	maxBlock   int
	curve      crossfade.Curve
	duration   atomic.Uint64

	log      *slog.Logger
	registry *audio.Registry
	now      func() time.Time

	bus     *mixer.Bus
	fader   *crossfade.Fader
	sampler *telemetry.Sampler

	pmu   sync.Mutex
	queue *command.Queue[command.Message]
	// crossfade commands pushed but not yet drained
	xfadeInFlight atomic.Int64
	xfadeStarts   atomic.Int64

	// render goroutine only
	view [][]float32
	msg  command.Message

	errMu   sync.Mutex
	lastErr error
}

// New creates an engine rendering sampleRate Hz into channels outputs.
func New(sampleRate, channels int, opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", audio.ErrInvalidSampleRate, sampleRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannels, channels)
	}
	if o.maxBlock <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxBlock, o.maxBlock)
	}

	q, err := command.NewQueue[command.Message](o.queueCap)
	if err != nil {
		return nil, fmt.Errorf("command queue: %w", err)
	}

	registry := o.registry
	if registry == nil {
		registry = NewDecoderRegistry()
	}

	e := &Engine{
		sampleRate: sampleRate,
		channels:   channels,
		maxBlock:   o.maxBlock,
		curve:      o.curve,
		log:        o.logger,
		registry:   registry,
		now:        o.now,
		bus:        mixer.NewBus(sampleRate, channels),
		fader: crossfade.New(sampleRate, o.maxBlock,
			crossfade.WithQueueCapacity(o.xfadeQueueCap),
			crossfade.WithAutoStart(o.autoStart),
		),
		sampler: telemetry.NewSampler(sampleRate, o.window, o.cpuThreshold),
		queue:   q,
		view:    make([][]float32, channels),
	}
	e.sampler.SetHostLatency(o.hostLatency)
	e.SetDefaultDuration(o.duration)

	return e, nil
}

func (e *Engine) SampleRate() int { return e.sampleRate }
func (e *Engine) Channels() int   { return e.channels }

// DefaultCurve is the curve used when a crossfade does not name one.
func (e *Engine) DefaultCurve() crossfade.Curve { return e.curve }

// DefaultDuration is the crossfade length in seconds used when a show
// script does not give one.
func (e *Engine) DefaultDuration() float64 {
	return math.Float64frombits(e.duration.Load())
}

// SetDefaultDuration changes DefaultDuration. Values below
// crossfade.MinDefaultDuration, and NaN, are raised to it.
func (e *Engine) SetDefaultDuration(seconds float64) {
	if !(seconds >= crossfade.MinDefaultDuration) {
		seconds = crossfade.MinDefaultDuration
	}
	e.duration.Store(math.Float64bits(seconds))
}

// SetCustomCurve installs the shape used by crossfade.Custom crossfades
// that begin after the call. It reports false, with LastError set, when
// points is not a valid curve.
func (e *Engine) SetCustomCurve(points []float64) bool {
	t, err := crossfade.NewTable(points)
	if err != nil {
		return e.fail(err)
	}
	e.fader.SetCustomCurve(t)
	e.log.Info("custom crossfade curve set", "points", len(points))

	return true
}

// Telemetry exposes the sampler so a host backend can report xruns and its
// device latency.
func (e *Engine) Telemetry() *telemetry.Sampler { return e.sampler }

// LastError describes the most recent failed control call, or nil.
func (e *Engine) LastError() error {
	e.errMu.Lock()
	defer e.errMu.Unlock()

	return e.lastErr
}

func (e *Engine) fail(err error) bool {
	e.errMu.Lock()
	e.lastErr = err
	e.errMu.Unlock()

	e.log.Debug("cue engine call failed", "error", err)

	return false
}

// send hands msg to the renderer. Producers share the queue behind pmu so
// the queue itself only ever sees one writer.
func (e *Engine) send(msg command.Message) bool {
	e.pmu.Lock()
	ok := e.queue.Push(&msg)
	e.pmu.Unlock()

	if !ok {
		return e.dropped(msg)
	}

	return true
}

func (e *Engine) dropped(msg command.Message) bool {
	e.log.Warn("command dropped", "kind", msg.Kind, "cue", msg.Cue.String(), "capacity", e.queue.Cap())
	return e.fail(fmt.Errorf("%w: %s", ErrQueueFull, msg.Kind))
}

// sendQueuedCrossfade pushes a QueueCrossfade message after checking that
// the crossfade FIFO will have room for it once every earlier one drains.
func (e *Engine) sendQueuedCrossfade(msg command.Message) bool {
	e.pmu.Lock()
	queued := e.fader.QueuedCount()
	used := queued + int(e.xfadeInFlight.Load())
	if !e.fader.Active() && queued == 0 && e.xfadeStarts.Load() == 0 && used > 0 {
		// the first one starts instead of waiting
		used--
	}
	if used >= e.fader.QueueCapacity() {
		e.pmu.Unlock()
		return e.fail(fmt.Errorf("%w: %d waiting", ErrCrossfadeQueueFull, used))
	}

	e.xfadeInFlight.Add(1)
	ok := e.queue.Push(&msg)
	if !ok {
		e.xfadeInFlight.Add(-1)
	}
	e.pmu.Unlock()

	if !ok {
		return e.dropped(msg)
	}

	return true
}

// resolve turns a caller-supplied id into a loaded cue id.
func (e *Engine) resolve(id string) (cueid.ID, bool) {
	cid, err := cueid.New(id)
	if err != nil {
		return cueid.ID{}, e.fail(fmt.Errorf("cue %q: %w", id, err))
	}
	if !e.bus.Has(cid) {
		return cueid.ID{}, e.fail(fmt.Errorf("%w: %q", mixer.ErrCueNotFound, id))
	}

	return cid, true
}

func (e *Engine) cueCommand(kind command.Kind, id string, f float64, i int64) bool {
	cid, ok := e.resolve(id)
	if !ok {
		return false
	}

	return e.send(command.Message{Kind: kind, Cue: cid, F: f, I: i})
}

// UnloadCue removes a cue. It stops sounding at the next callback.
func (e *Engine) UnloadCue(id string) bool {
	cid, ok := e.resolve(id)
	if !ok {
		return false
	}
	if err := e.bus.Unload(cid); err != nil {
		return e.fail(err)
	}
	e.log.Info("cue unloaded", "cue", id)

	return true
}

// ClearAll unloads every cue and reports how many were removed.
func (e *Engine) ClearAll() int {
	n := e.bus.Clear()
	e.log.Info("cues cleared", "count", n)

	return n
}

func (e *Engine) StartCue(id string) bool  { return e.cueCommand(command.StartCue, id, 0, 0) }
func (e *Engine) StopCue(id string) bool   { return e.cueCommand(command.StopCue, id, 0, 0) }
func (e *Engine) PauseCue(id string) bool  { return e.cueCommand(command.PauseCue, id, 0, 0) }
func (e *Engine) ResumeCue(id string) bool { return e.cueCommand(command.ResumeCue, id, 0, 0) }

// SetCueVolume sets a cue level; it is clamped into [0,1].
func (e *Engine) SetCueVolume(id string, v float64) bool {
	return e.cueCommand(command.SetVolume, id, v, 0)
}

// SetCuePan sets a cue pan; it is clamped into [-1,1].
func (e *Engine) SetCuePan(id string, p float64) bool {
	return e.cueCommand(command.SetPan, id, p, 0)
}

func (e *Engine) SetCueLoop(id string, loop bool) bool {
	var i int64
	if loop {
		i = 1
	}

	return e.cueCommand(command.SetLoop, id, 0, i)
}

// SeekCue moves the play position of a playing or paused cue.
func (e *Engine) SeekCue(id string, seconds float64) bool {
	return e.cueCommand(command.Seek, id, seconds, 0)
}

func (e *Engine) FadeInCue(id string, seconds float64) bool {
	return e.cueCommand(command.FadeIn, id, seconds, 0)
}

func (e *Engine) FadeOutCue(id string, seconds float64) bool {
	return e.cueCommand(command.FadeOut, id, seconds, 0)
}

func (e *Engine) StopAll() bool   { return e.send(command.Message{Kind: command.StopAll}) }
func (e *Engine) PauseAll() bool  { return e.send(command.Message{Kind: command.PauseAll}) }
func (e *Engine) ResumeAll() bool { return e.send(command.Message{Kind: command.ResumeAll}) }

// SetMasterVolume sets the output level, clamped into [0,1]. It applies
// from the next callback without going through the queue.
func (e *Engine) SetMasterVolume(v float64) { e.bus.SetMasterVolume(v) }

func (e *Engine) MasterVolume() float64 { return e.bus.MasterVolume() }

// StartCrossfade fades from one cue to another over seconds using the
// default curve. A running crossfade is replaced.
func (e *Engine) StartCrossfade(from, to string, seconds float64) bool {
	return e.StartCrossfadeWith(from, to, seconds, e.curve)
}

// StartCrossfadeWith is StartCrossfade with an explicit curve.
func (e *Engine) StartCrossfadeWith(from, to string, seconds float64, curve crossfade.Curve) bool {
	msg, ok := e.crossfadeCommand(command.StartCrossfade, from, to, seconds, curve)
	if !ok {
		return false
	}
	if st := e.fader.Status(); st.Active {
		e.log.Warn("replacing active crossfade",
			"from", st.From, "to", st.To, "progress", st.Progress,
			"new_from", from, "new_to", to)
	}

	e.xfadeStarts.Add(1)
	if !e.send(msg) {
		e.xfadeStarts.Add(-1)
		return false
	}

	return true
}

// QueueCrossfade schedules a crossfade to begin on the sample after the
// current one ends, or right away when none is running. It reports false
// when the crossfade queue is full.
func (e *Engine) QueueCrossfade(from, to string, seconds float64) bool {
	return e.QueueCrossfadeWith(from, to, seconds, e.curve)
}

// QueueCrossfadeWith is QueueCrossfade with an explicit curve.
func (e *Engine) QueueCrossfadeWith(from, to string, seconds float64, curve crossfade.Curve) bool {
	msg, ok := e.crossfadeCommand(command.QueueCrossfade, from, to, seconds, curve)
	if !ok {
		return false
	}

	return e.sendQueuedCrossfade(msg)
}

func (e *Engine) crossfadeCommand(kind command.Kind, from, to string, seconds float64, curve crossfade.Curve) (command.Message, bool) {
	fid, ok := e.resolve(from)
	if !ok {
		return command.Message{}, false
	}
	tid, ok := e.resolve(to)
	if !ok {
		return command.Message{}, false
	}
	if !curve.Valid() {
		curve = e.curve
	}

	return command.Message{Kind: kind, Cue: fid, Target: tid, F: seconds, I: int64(curve)}, true
}

// StopCrossfade abandons the running crossfade, leaving both cues at the
// gain they last rendered with. It reports false when none is running.
func (e *Engine) StopCrossfade() bool {
	if !e.fader.Active() {
		return e.fail(ErrNotCrossfading)
	}

	return e.send(command.Message{Kind: command.StopCrossfade})
}

// ClearCrossfadeQueue drops every pending crossfade.
func (e *Engine) ClearCrossfadeQueue() bool {
	return e.send(command.Message{Kind: command.ClearCrossfades})
}

func (e *Engine) IsCrossfading() bool               { return e.fader.Active() }
func (e *Engine) CrossfadeProgress() float64        { return e.fader.Progress() }
func (e *Engine) CrossfadeStatus() crossfade.Status { return e.fader.Status() }
func (e *Engine) QueuedCrossfadeCount() int         { return e.fader.QueuedCount() }

func (e *Engine) ActiveCues() []mixer.Info { return e.bus.ActiveCues() }
func (e *Engine) AllCues() []mixer.Info    { return e.bus.AllCues() }
func (e *Engine) ActiveCueCount() int      { return e.bus.ActiveCueCount() }

func (e *Engine) CueInfo(id string) (mixer.Info, bool) {
	cid, err := cueid.New(id)
	if err != nil {
		return mixer.Info{}, false
	}

	return e.bus.CueInfo(cid)
}

func (e *Engine) IsCueLoaded(id string) bool {
	cid, err := cueid.New(id)
	return err == nil && e.bus.Has(cid)
}

func (e *Engine) IsCuePlaying(id string) bool {
	cid, err := cueid.New(id)
	return err == nil && e.bus.IsCuePlaying(cid)
}

// QueuedCommands is the number of commands the renderer has not drained.
func (e *Engine) QueuedCommands() int { return e.queue.Len() }

// Metrics returns the latest telemetry snapshot.
func (e *Engine) Metrics() telemetry.Metrics { return e.sampler.Snapshot() }
