// SPDX-License-Identifier: EPL-2.0

package crossfade

import (
	"math"
	"runtime"
	"sync/atomic"

	"github.com/ik5/cuemix/cueid"
)

// DefaultQueueCapacity is how many crossfades may wait behind the active
// one unless configured otherwise.
const DefaultQueueCapacity = 16

// Durations used when a crossfade is requested without a length.
const (
	DefaultDuration    = 3.0
	MinDefaultDuration = 0.1
)

// Controller is the part of the mixing bus a crossfade drives.
type Controller interface {
	StartCue(id cueid.ID) bool
	StopCue(id cueid.ID) bool
	HoldGain(id cueid.ID, g float32) bool
}

// Op describes one crossfade.
type Op struct {
	From    cueid.ID
	To      cueid.ID
	Seconds float64
	Curve   Curve
}

// Option configures a Fader.
type Option func(*Fader)

// WithQueueCapacity sets how many crossfades may be pending. Values below
// one are ignored.
func WithQueueCapacity(n int) Option {
	return func(f *Fader) {
		if n > 0 {
			f.pending = make([]Op, n)
		}
	}
}

// WithAutoStart controls whether a crossfade starts its target cue.
// Enabled by default.
func WithAutoStart(on bool) Option {
	return func(f *Fader) { f.autoStart = on }
}

// Fader runs at most one crossfade at a time and keeps a FIFO of pending
// ones.
//
// All methods except Status, Active, Progress and QueuedCount belong to
// the render goroutine. A render tick runs Prepare, mixes the returned
// span using the Fader as the bus GainSource, then calls Settle. Prepare
// never returns a span that runs past the end of the active crossfade, so
// a queued successor starts on the very next sample.
type Fader struct {
	sampleRate int
	autoStart  bool

	active  bool
	op      Op
	table   *Table
	elapsed int
	total   int

	pending []Op
	head    int
	count   int

	span int
	gOut []float32
	gIn  []float32
	ones []float32

	custom atomic.Pointer[Table]

	seq        atomic.Uint64
	pubActive  atomic.Bool
	pubFrom    cueid.Atomic
	pubTo      cueid.Atomic
	pubSeconds atomic.Uint64
	pubElapsed atomic.Int64
	pubTotal   atomic.Int64
	pubCurve   atomic.Uint32
	pubPending atomic.Int32
	dropped    atomic.Uint64
}

// New creates an idle fader. maxBlock is the longest span the engine will
// ever ask Prepare for.
func New(sampleRate, maxBlock int, opts ...Option) *Fader {
	f := &Fader{
		sampleRate: sampleRate,
		autoStart:  true,
		pending:    make([]Op, DefaultQueueCapacity),
		gOut:       make([]float32, maxBlock),
		gIn:        make([]float32, maxBlock),
		ones:       make([]float32, maxBlock),
	}
	for i := range f.ones {
		f.ones[i] = 1
	}
	for _, opt := range opts {
		opt(f)
	}
	f.publish()

	return f
}

// SetCustomCurve installs the shape used by Custom crossfades that begin
// from now on; a running one keeps the shape it started with. nil reverts
// to linear. Safe from any goroutine.
func (f *Fader) SetCustomCurve(t *Table) { f.custom.Store(t) }

// CustomCurve returns the installed custom shape, or nil.
func (f *Fader) CustomCurve() *Table { return f.custom.Load() }

// QueueCapacity is the size of the pending FIFO.
func (f *Fader) QueueCapacity() int { return len(f.pending) }

// AutoStart reports whether crossfades start their target cue.
func (f *Fader) AutoStart() bool { return f.autoStart }

// Samples converts a crossfade length to samples, never less than one.
func Samples(seconds float64, sampleRate int) int {
	if !(seconds > 0) {
		return 1
	}
	n := math.Round(seconds * float64(sampleRate))
	switch {
	case n < 1:
		return 1
	case n > math.MaxInt32:
		return math.MaxInt32
	}

	return int(n)
}

// Start begins op immediately, abandoning any active crossfade. The
// abandoned cues keep whatever gain they last rendered with. It reports
// whether a crossfade was replaced.
func (f *Fader) Start(op Op, ctl Controller) bool {
	replaced := f.active
	f.begin(op, ctl)
	f.publish()

	return replaced
}

func (f *Fader) begin(op Op, ctl Controller) {
	if !op.Curve.Valid() {
		op.Curve = EqualPower
	}
	f.op = op
	f.table = nil
	if op.Curve == Custom {
		f.table = f.custom.Load()
	}
	f.active = true
	f.elapsed = 0
	f.total = Samples(op.Seconds, f.sampleRate)
	f.span = 0

	if f.autoStart {
		ctl.StartCue(op.To)
	}
}

// Enqueue appends op to the pending FIFO, or starts it right away when
// nothing is running. It reports false, and counts a drop, when the FIFO is
// full.
func (f *Fader) Enqueue(op Op, ctl Controller) bool {
	if !f.active && f.count == 0 {
		f.begin(op, ctl)
		f.publish()
		return true
	}
	if f.count == len(f.pending) {
		f.dropped.Add(1)
		return false
	}

	f.pending[(f.head+f.count)%len(f.pending)] = op
	f.count++
	f.publish()

	return true
}

// Stop abandons the active crossfade and leaves both cues at the gain they
// last rendered with. Pending crossfades stay queued. It reports false when
// nothing was running.
func (f *Fader) Stop() bool {
	if !f.active {
		return false
	}
	f.active = false
	f.elapsed = 0
	f.span = 0
	f.publish()

	return true
}

// ClearQueue drops every pending crossfade and reports how many there were.
func (f *Fader) ClearQueue() int {
	n := f.count
	f.head, f.count = 0, 0
	f.publish()

	return n
}

// Prepare computes the gains for the next span of at most n samples and
// returns the span length. When a crossfade is running the span ends no
// later than its last sample.
func (f *Fader) Prepare(n int) int {
	if !f.active {
		f.span = n
		return n
	}

	span := min(n, f.total-f.elapsed, len(f.gOut))
	total := float64(f.total)
	for i := range span {
		p := float64(f.elapsed+i+1) / total
		var out, in float64
		if f.op.Curve == Custom {
			out, in = f.table.Gains(p)
		} else {
			out, in = f.op.Curve.Gains(p)
		}
		f.gOut[i] = float32(out)
		f.gIn[i] = float32(in)
	}
	f.span = span

	return span
}

// GainFor implements mixer.GainSource for the prepared span.
func (f *Fader) GainFor(id cueid.ID) []float32 {
	if !f.active {
		return nil
	}
	switch id {
	case f.op.From:
		if f.op.From == f.op.To {
			return f.ones[:f.span]
		}
		return f.gOut[:f.span]
	case f.op.To:
		return f.gIn[:f.span]
	}

	return nil
}

// Settle advances the active crossfade past the rendered span. On
// completion the outgoing cue is stopped, the incoming cue holds unity gain
// and the next pending crossfade, if any, begins.
func (f *Fader) Settle(ctl Controller) {
	if !f.active {
		return
	}

	f.elapsed += f.span
	f.span = 0
	if f.elapsed < f.total {
		f.publish()
		return
	}

	f.elapsed = f.total
	f.active = false
	ctl.HoldGain(f.op.To, 1)
	if f.op.From != f.op.To {
		ctl.StopCue(f.op.From)
	}

	if f.count > 0 {
		next := f.pending[f.head]
		f.pending[f.head] = Op{}
		f.head = (f.head + 1) % len(f.pending)
		f.count--
		f.begin(next, ctl)
	}
	f.publish()
}

func (f *Fader) publish() {
	f.seq.Add(1)
	f.pubActive.Store(f.active)
	f.pubFrom.Store(f.op.From)
	f.pubTo.Store(f.op.To)
	f.pubSeconds.Store(math.Float64bits(f.op.Seconds))
	f.pubElapsed.Store(int64(f.elapsed))
	f.pubTotal.Store(int64(f.total))
	f.pubCurve.Store(uint32(f.op.Curve))
	f.pubPending.Store(int32(f.count))
	f.seq.Add(1)
}

// Status is a consistent snapshot of the crossfade state.
type Status struct {
	Active         bool
	From           string
	To             string
	Duration       float64 // requested seconds
	Curve          Curve
	ElapsedSamples int64
	TotalSamples   int64
	Progress       float64
	Elapsed        float64 // seconds
	Remaining      float64 // seconds
	Pending        int
}

// Status reads the last published state. Safe from any goroutine.
func (f *Fader) Status() Status {
	for {
		s1 := f.seq.Load()
		if s1&1 == 1 {
			runtime.Gosched()
			continue
		}

		st := Status{
			Active:         f.pubActive.Load(),
			Duration:       math.Float64frombits(f.pubSeconds.Load()),
			Curve:          Curve(f.pubCurve.Load()),
			ElapsedSamples: f.pubElapsed.Load(),
			TotalSamples:   f.pubTotal.Load(),
			Pending:        int(f.pubPending.Load()),
		}
		from := f.pubFrom.Load()
		to := f.pubTo.Load()

		if f.seq.Load() != s1 {
			continue
		}

		st.From = from.String()
		st.To = to.String()
		if st.TotalSamples > 0 {
			st.Progress = float64(st.ElapsedSamples) / float64(st.TotalSamples)
		}
		st.Elapsed = float64(st.ElapsedSamples) / float64(f.sampleRate)
		if st.Active {
			st.Remaining = float64(st.TotalSamples-st.ElapsedSamples) / float64(f.sampleRate)
		}

		return st
	}
}

// Active reports whether a crossfade is running. Safe from any goroutine.
func (f *Fader) Active() bool { return f.pubActive.Load() }

// Progress is the fraction of the active or last completed crossfade
// already rendered, 0 after Stop. Safe from any goroutine.
func (f *Fader) Progress() float64 { return f.Status().Progress }

// QueuedCount is the number of pending crossfades. Safe from any goroutine.
func (f *Fader) QueuedCount() int { return int(f.pubPending.Load()) }

// Dropped counts crossfades rejected because the FIFO was full.
func (f *Fader) Dropped() uint64 { return f.dropped.Load() }
