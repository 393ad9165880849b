// SPDX-License-Identifier: EPL-2.0

package host

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// Streamer exposes a Renderer as a beep.Streamer. Mono renderers are
// duplicated to both sides; channels past the second are dropped.
type Streamer struct {
	r      Renderer
	planes [][]float32
	block  int
}

// NewStreamer wraps r, rendering at most block frames at a time.
func NewStreamer(r Renderer, block int) (*Streamer, error) {
	if r == nil {
		return nil, ErrNoRenderer
	}
	if block <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlock, block)
	}

	return &Streamer{r: r, planes: planes(r.Channels(), block), block: block}, nil
}

// Format is the beep format matching the renderer.
func (s *Streamer) Format() beep.Format {
	return beep.Format{
		SampleRate:  beep.SampleRate(s.r.SampleRate()),
		NumChannels: 2,
	}
}

// Stream never drains; the renderer decides what is audible.
func (s *Streamer) Stream(samples [][2]float64) (int, bool) {
	left := s.planes[0]
	right := left
	if len(s.planes) > 1 {
		right = s.planes[1]
	}

	for off := 0; off < len(samples); {
		n := min(len(samples)-off, s.block)
		s.r.Render(s.planes, n)
		for i := range n {
			samples[off+i] = [2]float64{float64(left[i]), float64(right[i])}
		}
		off += n
	}

	return len(samples), true
}

func (s *Streamer) Err() error { return nil }

// BeepBackend plays a Renderer through beep's speaker.
type BeepBackend struct {
	log      *slog.Logger
	streamer *Streamer
	buffer   time.Duration

	mu      sync.Mutex
	started bool
	closed  bool
}

// NewBeepBackend prepares playback; the speaker opens on Start. buffer
// is the speaker's buffer length.
func NewBeepBackend(r Renderer, block int, buffer time.Duration, log *slog.Logger) (*BeepBackend, error) {
	s, err := NewStreamer(r, block)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	if buffer <= 0 {
		buffer = 100 * time.Millisecond
	}

	return &BeepBackend{log: log, streamer: s, buffer: buffer}, nil
}

// Start opens the speaker and begins playback.
func (b *BeepBackend) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if b.started {
		return nil
	}

	rate := b.streamer.Format().SampleRate
	if err := speaker.Init(rate, rate.N(b.buffer)); err != nil {
		return fmt.Errorf("initializing speaker: %w", err)
	}
	speaker.Play(b.streamer)
	b.started = true
	b.log.Info("beep output started", "sample_rate", int(rate), "buffer", b.buffer)

	return nil
}

// Close stops playback and releases the speaker.
func (b *BeepBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	if b.started {
		speaker.Clear()
		speaker.Close()
		b.started = false
	}

	return nil
}
