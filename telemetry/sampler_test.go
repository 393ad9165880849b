// SPDX-License-Identifier: EPL-2.0

package telemetry

import (
	"math"
	"sync"
	"testing"
	"time"
)

// feed records n callbacks of frames each, busy for busy, spaced by the
// buffer period starting just after start. It returns the last timestamp.
func feed(s *Sampler, start time.Time, n, frames int, busy time.Duration) time.Time {
	period := time.Duration(int64(frames) * int64(time.Second) / int64(s.sampleRate))
	now := start
	for range n {
		now = now.Add(period)
		s.Record(frames, busy, now)
	}
	return now
}

func TestSampler_Defaults(t *testing.T) {
	t.Parallel()

	s := NewSampler(48000, 0, 0)
	if s.window != DefaultWindow {
		t.Errorf("window = %v, want %v", s.window, DefaultWindow)
	}
	if s.cpuThreshold != DefaultCPUThreshold {
		t.Errorf("cpuThreshold = %v, want %v", s.cpuThreshold, DefaultCPUThreshold)
	}

	m := s.Snapshot()
	if !m.Stable {
		t.Error("new sampler should be stable")
	}
	if m.Callbacks != 0 || m.Frames != 0 || m.Underruns != 0 || m.Faults != 0 {
		t.Errorf("new sampler counters = %+v, want zero", m)
	}
}

func TestSampler_WindowMath(t *testing.T) {
	t.Parallel()

	s := NewSampler(48000, 100*time.Millisecond, 80)
	s.SetHostLatency(5 * time.Millisecond)

	// 480 frames at 48 kHz is a 10 ms period; 2 ms busy is 20% CPU.
	feed(s, time.Unix(0, 0), 11, 480, 2*time.Millisecond)

	m := s.Snapshot()
	if m.Callbacks != 11 {
		t.Errorf("Callbacks = %d, want 11", m.Callbacks)
	}
	if m.Frames != 11*480 {
		t.Errorf("Frames = %d, want %d", m.Frames, 11*480)
	}
	if math.Abs(m.CPUPercent-20) > 1e-9 {
		t.Errorf("CPUPercent = %v, want 20", m.CPUPercent)
	}
	if math.Abs(m.LatencyMs-15) > 1e-9 {
		t.Errorf("LatencyMs = %v, want 15", m.LatencyMs)
	}
	if m.Underruns != 0 {
		t.Errorf("Underruns = %d, want 0", m.Underruns)
	}
	if !m.Stable {
		t.Error("Stable = false, want true")
	}
}

func TestSampler_ValuesHeldUntilWindowCloses(t *testing.T) {
	t.Parallel()

	s := NewSampler(48000, 100*time.Millisecond, 80)
	feed(s, time.Unix(0, 0), 5, 480, 2*time.Millisecond)

	if m := s.Snapshot(); m.CPUPercent != 0 || m.LatencyMs != 0 {
		t.Errorf("derived values before first window = (%v, %v), want zero", m.CPUPercent, m.LatencyMs)
	}
}

func TestSampler_DeadlineMissIsUnderrun(t *testing.T) {
	t.Parallel()

	s := NewSampler(48000, 100*time.Millisecond, 80)
	now := feed(s, time.Unix(0, 0), 11, 480, time.Millisecond)
	if !s.Snapshot().Stable {
		t.Fatal("first window should be stable")
	}

	s.Record(480, 15*time.Millisecond, now.Add(10*time.Millisecond))
	feed(s, now.Add(10*time.Millisecond), 10, 480, time.Millisecond)

	m := s.Snapshot()
	if m.Underruns != 1 {
		t.Errorf("Underruns = %d, want 1", m.Underruns)
	}
	if m.Stable {
		t.Error("Stable = true after a missed deadline, want false")
	}

	// A clean window afterwards recovers.
	feed(s, now.Add(110*time.Millisecond), 11, 480, time.Millisecond)
	if !s.Snapshot().Stable {
		t.Error("Stable = false after a clean window, want true")
	}
}

func TestSampler_CPUThreshold(t *testing.T) {
	t.Parallel()

	s := NewSampler(48000, 100*time.Millisecond, 80)
	feed(s, time.Unix(0, 0), 11, 480, 9*time.Millisecond)

	m := s.Snapshot()
	if math.Abs(m.CPUPercent-90) > 1e-9 {
		t.Errorf("CPUPercent = %v, want 90", m.CPUPercent)
	}
	if m.Stable {
		t.Error("Stable = true at 90% CPU, want false")
	}
	if m.Underruns != 0 {
		t.Errorf("Underruns = %d, want 0", m.Underruns)
	}
}

func TestSampler_HostReports(t *testing.T) {
	t.Parallel()

	s := NewSampler(48000, 0, 0)
	s.ReportUnderrun()
	s.ReportOverrun()
	s.ReportOverrun()
	s.Fault()

	m := s.Snapshot()
	if m.Underruns != 1 || m.Overruns != 2 || m.Faults != 1 {
		t.Errorf("counters = %+v, want 1 underrun, 2 overruns, 1 fault", m)
	}

	// xruns reported before the first window closes count against it.
	feed(s, time.Unix(0, 0), 11, 480, time.Millisecond)
	if s.Snapshot().Stable {
		t.Error("Stable = true despite xruns in the window, want false")
	}
}

func TestSampler_NegativeHostLatency(t *testing.T) {
	t.Parallel()

	s := NewSampler(48000, 0, 0)
	s.SetHostLatency(-time.Second)
	feed(s, time.Unix(0, 0), 11, 480, time.Millisecond)

	if m := s.Snapshot(); math.Abs(m.LatencyMs-10) > 1e-9 {
		t.Errorf("LatencyMs = %v, want 10", m.LatencyMs)
	}
}

func TestSampler_ConcurrentSnapshot(t *testing.T) {
	t.Parallel()

	s := NewSampler(48000, 10*time.Millisecond, 0)

	var wg sync.WaitGroup
	done := make(chan struct{})
	wg.Go(func() {
		for {
			select {
			case <-done:
				return
			default:
				_ = s.Snapshot()
			}
		}
	})

	feed(s, time.Unix(0, 0), 10000, 64, 100*time.Microsecond)
	close(done)
	wg.Wait()

	if got := s.Snapshot().Callbacks; got != 10000 {
		t.Errorf("Callbacks = %d, want 10000", got)
	}
}

func TestSampler_RecordZeroAllocs(t *testing.T) {
	s := NewSampler(48000, 0, 0)
	now := time.Unix(0, 0)

	allocs := testing.AllocsPerRun(1000, func() {
		now = now.Add(time.Millisecond)
		s.Record(48, 100*time.Microsecond, now)
	})
	if allocs != 0 {
		t.Errorf("Record allocated %v times per run, want 0", allocs)
	}
}
