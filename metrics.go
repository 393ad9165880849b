// SPDX-License-Identifier: EPL-2.0

package cuemix

import (
	"go.opentelemetry.io/otel/metric"

	"github.com/ik5/cuemix/telemetry"
)

// RegisterMetrics exports the engine's telemetry and cue counts on mp.
func (e *Engine) RegisterMetrics(mp metric.MeterProvider) (metric.Registration, error) {
	return telemetry.Register(mp, e.sampler, telemetry.Gauges{
		ActiveCues:        func() int64 { return int64(e.bus.ActiveCueCount()) },
		LoadedCues:        func() int64 { return int64(len(e.bus.AllCues())) },
		QueuedCommands:    func() int64 { return int64(e.queue.Len()) },
		Crossfading:       e.fader.Active,
		CrossfadesDropped: e.fader.Dropped,
	})
}
