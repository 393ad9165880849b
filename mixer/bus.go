// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/ik5/cuemix/audio"
	"github.com/ik5/cuemix/cueid"
)

// GainSource supplies per-sample external gains for the span being
// rendered. GainFor returns nil for cues it does not drive.
type GainSource interface {
	GainFor(id cueid.ID) []float32
}

// catalog is an immutable cue set. Writers build a new one and publish it.
type catalog struct {
	order []*Cue
	byID  map[cueid.ID]*Cue
}

var emptyCatalog = &catalog{byID: map[cueid.ID]*Cue{}}

func (c *catalog) with(cue *Cue) *catalog {
	next := &catalog{
		order: append(slices.Clip(c.order), cue),
		byID:  make(map[cueid.ID]*Cue, len(c.byID)+1),
	}
	for id, v := range c.byID {
		next.byID[id] = v
	}
	next.byID[cue.id] = cue

	return next
}

func (c *catalog) without(id cueid.ID) *catalog {
	next := &catalog{
		order: make([]*Cue, 0, len(c.order)),
		byID:  make(map[cueid.ID]*Cue, len(c.byID)),
	}
	for _, cue := range c.order {
		if cue.id == id {
			continue
		}
		next.order = append(next.order, cue)
		next.byID[cue.id] = cue
	}

	return next
}

// Bus owns the loaded cues and mixes them.
//
// Catalog changes (Load, Unload, Clear) run on control goroutines. They
// serialize on a mutex and publish a fresh immutable catalog; they never
// touch the catalog the renderer is iterating. The render goroutine picks
// up the newest catalog with Adopt and is the only caller of the playback
// methods (StartCue, Render, ...). Query methods read the published
// catalog and the cues' published snapshots, so they are safe anywhere.
type Bus struct {
	sampleRate int
	channels   int

	mu        sync.Mutex
	published atomic.Pointer[catalog]

	live *catalog

	master atomic.Uint64
}

// NewBus creates an empty bus for a session of the given shape.
func NewBus(sampleRate, channels int) *Bus {
	b := &Bus{
		sampleRate: sampleRate,
		channels:   channels,
		live:       emptyCatalog,
	}
	b.published.Store(emptyCatalog)
	b.master.Store(math.Float64bits(1))

	return b
}

func (b *Bus) SampleRate() int { return b.sampleRate }
func (b *Bus) Channels() int   { return b.channels }

// Load registers pcm under id. The id must not be loaded already and the
// clip must match the session sample rate.
func (b *Bus) Load(id cueid.ID, source string, pcm *audio.PCM) error {
	if id.IsZero() {
		return cueid.ErrEmpty
	}
	if pcm == nil {
		return audio.ErrEmptyPCM
	}
	if err := pcm.Validate(); err != nil {
		return fmt.Errorf("cue %q: %w", id, err)
	}
	if pcm.SampleRate != b.sampleRate {
		return fmt.Errorf("cue %q: %w: %d Hz, session runs at %d Hz", id, ErrSampleRateMismatch, pcm.SampleRate, b.sampleRate)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	cur := b.published.Load()
	if _, ok := cur.byID[id]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateCue, id)
	}
	b.published.Store(cur.with(NewCue(id, source, pcm)))

	return nil
}

// Unload removes id from the catalog. The renderer keeps its current
// catalog until its next Adopt, so a cue being mixed is never pulled out
// from under it; the cue is stopped when that Adopt drops it.
func (b *Bus) Unload(id cueid.ID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cur := b.published.Load()
	if _, ok := cur.byID[id]; !ok {
		return fmt.Errorf("%w: %q", ErrCueNotFound, id)
	}
	b.published.Store(cur.without(id))

	return nil
}

// Clear removes every cue and reports how many were removed.
func (b *Bus) Clear() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.published.Load().order)
	b.published.Store(emptyCatalog)

	return n
}

// Adopt makes the newest published catalog the one the renderer uses.
// Cues missing from it are stopped. Render goroutine only.
func (b *Bus) Adopt() {
	next := b.published.Load()
	if next == b.live {
		return
	}
	for _, c := range b.live.order {
		if next.byID[c.id] != c {
			c.Stop()
		}
	}
	b.live = next
}

// Has reports whether id is in the published catalog.
func (b *Bus) Has(id cueid.ID) bool {
	_, ok := b.published.Load().byID[id]
	return ok
}

// cue looks id up in the renderer's catalog, adopting a newer one when id
// was loaded after the last Adopt.
func (b *Bus) cue(id cueid.ID) (*Cue, bool) {
	c, ok := b.live.byID[id]
	if !ok && b.published.Load() != b.live {
		b.Adopt()
		c, ok = b.live.byID[id]
	}
	return c, ok
}

// The methods below change playback state and belong to the render
// goroutine. Each reports false when the renderer's catalog has no such
// cue.

func (b *Bus) StartCue(id cueid.ID) bool {
	c, ok := b.cue(id)
	if ok {
		c.Start()
	}
	return ok
}

func (b *Bus) StopCue(id cueid.ID) bool {
	c, ok := b.cue(id)
	if ok {
		c.Stop()
	}
	return ok
}

func (b *Bus) PauseCue(id cueid.ID) bool {
	c, ok := b.cue(id)
	if ok {
		c.Pause()
	}
	return ok
}

func (b *Bus) ResumeCue(id cueid.ID) bool {
	c, ok := b.cue(id)
	if ok {
		c.Resume()
	}
	return ok
}

func (b *Bus) SetCueVolume(id cueid.ID, v float64) bool {
	c, ok := b.cue(id)
	if ok {
		c.SetVolume(v)
	}
	return ok
}

func (b *Bus) SetCuePan(id cueid.ID, p float64) bool {
	c, ok := b.cue(id)
	if ok {
		c.SetPan(p)
	}
	return ok
}

func (b *Bus) SetCueLoop(id cueid.ID, loop bool) bool {
	c, ok := b.cue(id)
	if ok {
		c.SetLoop(loop)
	}
	return ok
}

func (b *Bus) SeekCue(id cueid.ID, seconds float64) bool {
	c, ok := b.cue(id)
	if ok {
		c.Seek(seconds)
	}
	return ok
}

func (b *Bus) FadeInCue(id cueid.ID, seconds float64) bool {
	c, ok := b.cue(id)
	if ok {
		c.FadeIn(seconds)
	}
	return ok
}

func (b *Bus) FadeOutCue(id cueid.ID, seconds float64) bool {
	c, ok := b.cue(id)
	if ok {
		c.FadeOut(seconds)
	}
	return ok
}

// HoldGain sets the external gain id keeps once per-sample gains stop
// arriving.
func (b *Bus) HoldGain(id cueid.ID, g float32) bool {
	c, ok := b.cue(id)
	if ok {
		c.HoldGain(g)
	}
	return ok
}

func (b *Bus) StopAll() {
	for _, c := range b.live.order {
		c.Stop()
	}
}

func (b *Bus) PauseAll() {
	for _, c := range b.live.order {
		c.Pause()
	}
}

func (b *Bus) ResumeAll() {
	for _, c := range b.live.order {
		c.Resume()
	}
}

// SetMasterVolume clamps v into [0,1]. Safe from any goroutine.
func (b *Bus) SetMasterVolume(v float64) {
	if math.IsNaN(v) {
		return
	}
	b.master.Store(math.Float64bits(clamp(v, 0, 1)))
}

func (b *Bus) MasterVolume() float64 {
	return math.Float64frombits(b.master.Load())
}

// Render zero-fills the first n frames of every channel in out, adds every
// cue into them and applies the master gain. gains may be nil. Render
// goroutine only; it never allocates.
func (b *Bus) Render(out [][]float32, n int, gains GainSource) {
	for ch := range out {
		clear(out[ch][:n])
	}

	for _, c := range b.live.order {
		var ext []float32
		if gains != nil {
			ext = gains.GainFor(c.id)
		}
		c.Render(out, n, ext)
	}

	m := float32(b.MasterVolume())
	if m == 1 {
		return
	}
	for ch := range out {
		buf := out[ch][:n]
		for i := range buf {
			buf[i] *= m
		}
	}
}

// ActiveCues describes every cue that is not stopped.
func (b *Bus) ActiveCues() []Info {
	var infos []Info
	for _, c := range b.published.Load().order {
		if c.State() != Stopped {
			infos = append(infos, c.Info())
		}
	}

	return infos
}

// AllCues describes every loaded cue in load order.
func (b *Bus) AllCues() []Info {
	order := b.published.Load().order
	infos := make([]Info, 0, len(order))
	for _, c := range order {
		infos = append(infos, c.Info())
	}

	return infos
}

func (b *Bus) CueInfo(id cueid.ID) (Info, bool) {
	c, ok := b.published.Load().byID[id]
	if !ok {
		return Info{}, false
	}

	return c.Info(), true
}

// IsCuePlaying reports whether id is loaded and audible.
func (b *Bus) IsCuePlaying(id cueid.ID) bool {
	c, ok := b.published.Load().byID[id]
	return ok && c.State().Audible()
}

// ActiveCueCount counts cues that are not stopped.
func (b *Bus) ActiveCueCount() int {
	n := 0
	for _, c := range b.published.Load().order {
		if c.State() != Stopped {
			n++
		}
	}

	return n
}
