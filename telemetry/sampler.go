// SPDX-License-Identifier: EPL-2.0

// Package telemetry tracks render-loop health.
//
// The render goroutine feeds a Sampler once per callback; any goroutine can
// read a Metrics snapshot at any time. All state crossing goroutines is held
// in atomics, so neither side ever waits on the other.
package telemetry

import (
	"math"
	"sync/atomic"
	"time"
)

const (
	// DefaultWindow is how often derived values (CPU, latency, stability)
	// are refreshed.
	DefaultWindow = 100 * time.Millisecond
	// DefaultCPUThreshold is the CPU percentage above which the engine is
	// reported unstable.
	DefaultCPUThreshold = 80.0
)

// Metrics is a snapshot of the sampler.
type Metrics struct {
	LatencyMs  float64
	CPUPercent float64
	Underruns  uint64
	Overruns   uint64
	Callbacks  uint64
	Frames     uint64
	Faults     uint64
	Stable     bool
}

// Sampler accumulates per-callback timings. Record belongs to the render
// goroutine; everything else is safe from anywhere.
type Sampler struct {
	sampleRate   int
	window       time.Duration
	cpuThreshold float64

	// render goroutine only
	winStart  time.Time
	winBusy   time.Duration
	winPeriod time.Duration
	winXruns  uint64

	hostLatency atomic.Int64 // nanoseconds
	latency     atomic.Uint64
	cpu         atomic.Uint64
	underruns   atomic.Uint64
	overruns    atomic.Uint64
	callbacks   atomic.Uint64
	frames      atomic.Uint64
	faults      atomic.Uint64
	stable      atomic.Bool
}

// NewSampler creates a sampler for a session at sampleRate. A window or
// threshold of zero selects the default.
func NewSampler(sampleRate int, window time.Duration, cpuThreshold float64) *Sampler {
	if window <= 0 {
		window = DefaultWindow
	}
	if cpuThreshold <= 0 {
		cpuThreshold = DefaultCPUThreshold
	}

	s := &Sampler{
		sampleRate:   sampleRate,
		window:       window,
		cpuThreshold: cpuThreshold,
	}
	s.stable.Store(true)

	return s
}

// SetHostLatency records the output latency reported by the host layer.
func (s *Sampler) SetHostLatency(d time.Duration) {
	s.hostLatency.Store(int64(max(d, 0)))
}

// Record accounts one callback that produced frames in busy wall time,
// finishing at now. A callback slower than its own buffer period counts as
// an underrun. Record never allocates.
func (s *Sampler) Record(frames int, busy time.Duration, now time.Time) {
	s.callbacks.Add(1)
	s.frames.Add(uint64(max(frames, 0)))

	period := time.Duration(0)
	if s.sampleRate > 0 {
		period = time.Duration(int64(frames) * int64(time.Second) / int64(s.sampleRate))
	}
	if period > 0 && busy > period {
		s.underruns.Add(1)
	}

	if s.winStart.IsZero() {
		s.winStart = now
	}
	s.winBusy += busy
	s.winPeriod += period

	if now.Sub(s.winStart) < s.window {
		return
	}

	cpu := 0.0
	if s.winPeriod > 0 {
		cpu = float64(s.winBusy) / float64(s.winPeriod) * 100
	}
	latency := float64(period+time.Duration(s.hostLatency.Load())) / float64(time.Millisecond)
	xruns := s.underruns.Load() + s.overruns.Load()

	s.cpu.Store(math.Float64bits(cpu))
	s.latency.Store(math.Float64bits(latency))
	s.stable.Store(cpu < s.cpuThreshold && xruns == s.winXruns)

	s.winXruns = xruns
	s.winStart = now
	s.winBusy = 0
	s.winPeriod = 0
}

// ReportUnderrun counts an underrun detected by the host layer.
func (s *Sampler) ReportUnderrun() { s.underruns.Add(1) }

// ReportOverrun counts an overrun detected by the host layer.
func (s *Sampler) ReportOverrun() { s.overruns.Add(1) }

// Fault counts a render callback that failed and was replaced by silence.
func (s *Sampler) Fault() { s.faults.Add(1) }

// Snapshot returns the current values. Fields are read individually, so a
// snapshot taken mid-update may mix two windows.
func (s *Sampler) Snapshot() Metrics {
	return Metrics{
		LatencyMs:  math.Float64frombits(s.latency.Load()),
		CPUPercent: math.Float64frombits(s.cpu.Load()),
		Underruns:  s.underruns.Load(),
		Overruns:   s.overruns.Load(),
		Callbacks:  s.callbacks.Load(),
		Frames:     s.frames.Load(),
		Faults:     s.faults.Load(),
		Stable:     s.stable.Load(),
	}
}
