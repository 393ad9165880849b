// SPDX-License-Identifier: EPL-2.0

package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// meterName is the instrumentation scope name used for all engine metrics.
const meterName = "github.com/ik5/cuemix"

var (
	stateLoaded = attribute.String("state", "loaded")
	stateActive = attribute.String("state", "active")
)

// Gauges supplies engine-level values exported next to the sampler's.
// Any field may be nil.
type Gauges struct {
	ActiveCues     func() int64
	LoadedCues     func() int64
	QueuedCommands func() int64
	Crossfading    func() bool

	// CrossfadesDropped counts queued crossfades the renderer refused.
	CrossfadesDropped func() uint64
}

// Register exposes s (and the optional gauges) as asynchronous instruments
// on mp. Values are read at collection time, never pushed from the render
// goroutine. Unregister the returned registration to detach.
func Register(mp metric.MeterProvider, s *Sampler, g Gauges) (metric.Registration, error) {
	m := mp.Meter(meterName)

	latency, err := m.Float64ObservableGauge("cuemix.latency",
		metric.WithDescription("Output latency: buffer period plus host device latency."),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}
	cpu, err := m.Float64ObservableGauge("cuemix.render.cpu",
		metric.WithDescription("Render time as a share of the buffer period."),
		metric.WithUnit("%"),
	)
	if err != nil {
		return nil, err
	}
	stable, err := m.Int64ObservableGauge("cuemix.stable",
		metric.WithDescription("1 while CPU is under threshold and no xruns occurred in the last window."),
	)
	if err != nil {
		return nil, err
	}
	underruns, err := m.Int64ObservableCounter("cuemix.underruns",
		metric.WithDescription("Buffer underruns, including missed render deadlines."),
	)
	if err != nil {
		return nil, err
	}
	overruns, err := m.Int64ObservableCounter("cuemix.overruns",
		metric.WithDescription("Buffer overruns reported by the host."),
	)
	if err != nil {
		return nil, err
	}
	callbacks, err := m.Int64ObservableCounter("cuemix.render.callbacks",
		metric.WithDescription("Render callbacks served."),
	)
	if err != nil {
		return nil, err
	}
	frames, err := m.Int64ObservableCounter("cuemix.render.frames",
		metric.WithDescription("Frames rendered."),
	)
	if err != nil {
		return nil, err
	}
	faults, err := m.Int64ObservableCounter("cuemix.render.faults",
		metric.WithDescription("Render callbacks replaced by silence after a failure."),
	)
	if err != nil {
		return nil, err
	}
	cues, err := m.Int64ObservableGauge("cuemix.cues",
		metric.WithDescription("Cues by state: loaded or active."),
	)
	if err != nil {
		return nil, err
	}
	queued, err := m.Int64ObservableGauge("cuemix.commands.queued",
		metric.WithDescription("Commands waiting for the render goroutine."),
	)
	if err != nil {
		return nil, err
	}
	crossfading, err := m.Int64ObservableGauge("cuemix.crossfade.active",
		metric.WithDescription("1 while a crossfade runs."),
	)
	if err != nil {
		return nil, err
	}
	xfadeDropped, err := m.Int64ObservableCounter("cuemix.crossfade.dropped",
		metric.WithDescription("Queued crossfades refused because the crossfade queue was full."),
	)
	if err != nil {
		return nil, err
	}

	return m.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		snap := s.Snapshot()
		o.ObserveFloat64(latency, snap.LatencyMs)
		o.ObserveFloat64(cpu, snap.CPUPercent)
		o.ObserveInt64(stable, boolToInt(snap.Stable))
		o.ObserveInt64(underruns, int64(snap.Underruns))
		o.ObserveInt64(overruns, int64(snap.Overruns))
		o.ObserveInt64(callbacks, int64(snap.Callbacks))
		o.ObserveInt64(frames, int64(snap.Frames))
		o.ObserveInt64(faults, int64(snap.Faults))

		if g.LoadedCues != nil {
			o.ObserveInt64(cues, g.LoadedCues(), metric.WithAttributes(stateLoaded))
		}
		if g.ActiveCues != nil {
			o.ObserveInt64(cues, g.ActiveCues(), metric.WithAttributes(stateActive))
		}
		if g.QueuedCommands != nil {
			o.ObserveInt64(queued, g.QueuedCommands())
		}
		if g.Crossfading != nil {
			o.ObserveInt64(crossfading, boolToInt(g.Crossfading()))
		}
		if g.CrossfadesDropped != nil {
			o.ObserveInt64(xfadeDropped, int64(g.CrossfadesDropped()))
		}

		return nil
	}, latency, cpu, stable, underruns, overruns, callbacks, frames, faults, cues, queued, crossfading, xfadeDropped)
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// ProviderConfig configures the OpenTelemetry SDK meter provider.
type ProviderConfig struct {
	// ServiceName is the service name reported in telemetry. Default: "cuemix".
	ServiceName string

	// ServiceVersion is the service version reported in telemetry.
	ServiceVersion string

	// InstanceID distinguishes concurrently running engines.
	InstanceID string
}

// InitProvider installs a global meter provider backed by a Prometheus
// exporter, so metrics can be scraped from the default Prometheus registry.
// The returned function flushes and shuts the provider down.
func InitProvider(cfg ProviderConfig) (*sdkmetric.MeterProvider, func(context.Context) error, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "cuemix"
	}

	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	}
	if cfg.InstanceID != "" {
		attrs = append(attrs, semconv.ServiceInstanceID(cfg.InstanceID))
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(attrs...),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("building resource: %w", err)
	}

	exp, err := promexporter.New()
	if err != nil {
		return nil, nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exp),
	)
	otel.SetMeterProvider(mp)

	return mp, mp.Shutdown, nil
}
