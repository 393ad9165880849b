// SPDX-License-Identifier: EPL-2.0

package host

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// OtoConfig sizes the oto output.
type OtoConfig struct {
	// Buffer is the driver-side buffer; zero lets oto choose.
	Buffer time.Duration
	// Block is the largest number of frames rendered per pull.
	Block int
}

// OtoBackend plays a Renderer through an oto context.
type OtoBackend struct {
	log    *slog.Logger
	ctx    *oto.Context
	reader *pullReader
	buffer time.Duration

	mu      sync.Mutex
	player  *oto.Player
	started bool
	closed  bool
}

// NewOtoBackend opens the default output device. It blocks until the
// device is ready.
func NewOtoBackend(r Renderer, cfg OtoConfig, log *slog.Logger) (*OtoBackend, error) {
	if r == nil {
		return nil, ErrNoRenderer
	}
	if cfg.Block <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlock, cfg.Block)
	}
	if log == nil {
		log = slog.Default()
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   r.SampleRate(),
		ChannelCount: r.Channels(),
		Format:       oto.FormatFloat32LE,
		BufferSize:   cfg.Buffer,
	})
	if err != nil {
		return nil, fmt.Errorf("opening oto context: %w", err)
	}
	<-ready

	return &OtoBackend{
		log:    log,
		ctx:    ctx,
		reader: newPullReader(r, cfg.Block),
		buffer: cfg.Buffer,
	}, nil
}

// Start begins playback.
func (b *OtoBackend) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if b.started {
		return nil
	}

	b.player = b.ctx.NewPlayer(b.reader)
	b.player.Play()
	b.started = true
	b.log.Info("oto output started",
		"sample_rate", b.reader.r.SampleRate(),
		"channels", b.reader.r.Channels(),
		"buffer", b.buffer,
	)

	return nil
}

// Err reports a playback error from the driver, if any.
func (b *OtoBackend) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.player == nil {
		return nil
	}
	return b.player.Err()
}

// Close stops playback. The oto context itself stays alive until the
// process exits.
func (b *OtoBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	b.started = false

	if b.player == nil {
		return nil
	}
	err := b.player.Close()
	b.player = nil
	if err != nil {
		return fmt.Errorf("closing oto player: %w", err)
	}

	return nil
}
