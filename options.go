// SPDX-License-Identifier: EPL-2.0

package cuemix

import (
	"log/slog"
	"time"

	"github.com/ik5/cuemix/audio"
	"github.com/ik5/cuemix/command"
	"github.com/ik5/cuemix/crossfade"
)

// DefaultMaxBlock is the longest span mixed in one pass. Longer Render
// calls are split into several passes.
const DefaultMaxBlock = 1024

type options struct {
	logger        *slog.Logger
	registry      *audio.Registry
	queueCap      int
	xfadeQueueCap int
	curve         crossfade.Curve
	duration      float64
	autoStart     bool
	maxBlock      int
	hostLatency   time.Duration
	cpuThreshold  float64
	window        time.Duration
	now           func() time.Time
}

func defaultOptions() options {
	return options{
		logger:        slog.Default(),
		queueCap:      command.DefaultCapacity,
		xfadeQueueCap: crossfade.DefaultQueueCapacity,
		curve:         crossfade.EqualPower,
		duration:      crossfade.DefaultDuration,
		autoStart:     true,
		maxBlock:      DefaultMaxBlock,
		now:           time.Now,
	}
}

// Option configures an Engine.
type Option func(*options)

// WithLogger sets the logger used by control methods. The render path
// never logs.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRegistry replaces the decoder registry used by LoadCue.
func WithRegistry(r *audio.Registry) Option {
	return func(o *options) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithQueueCapacity sets the command queue size. It must be a power of two.
func WithQueueCapacity(n int) Option {
	return func(o *options) { o.queueCap = n }
}

// WithCrossfadeQueueCapacity sets how many crossfades may wait behind the
// active one.
func WithCrossfadeQueueCapacity(n int) Option {
	return func(o *options) { o.xfadeQueueCap = n }
}

// WithDefaultCurve sets the curve used by StartCrossfade and
// QueueCrossfade.
func WithDefaultCurve(c crossfade.Curve) Option {
	return func(o *options) {
		if c.Valid() {
			o.curve = c
		}
	}
}

// WithDefaultDuration sets the crossfade length, in seconds, used when a
// show script does not give one. It is raised to
// crossfade.MinDefaultDuration.
func WithDefaultDuration(seconds float64) Option {
	return func(o *options) { o.duration = seconds }
}

// WithAutoStart controls whether a crossfade starts its target cue.
func WithAutoStart(on bool) Option {
	return func(o *options) { o.autoStart = on }
}

// WithMaxBlock sets the longest span mixed in one pass.
func WithMaxBlock(n int) Option {
	return func(o *options) { o.maxBlock = n }
}

// WithHostLatency sets the device latency added to the reported latency.
func WithHostLatency(d time.Duration) Option {
	return func(o *options) { o.hostLatency = d }
}

// WithCPUThreshold sets the render load, in percent, above which the engine
// reports itself unstable.
func WithCPUThreshold(pct float64) Option {
	return func(o *options) { o.cpuThreshold = pct }
}
