// SPDX-License-Identifier: EPL-2.0

package telemetry

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestReader returns a meter provider backed by a ManualReader.
func newTestReader(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func int64Points(t *testing.T, m *metricdata.Metrics) []metricdata.DataPoint[int64] {
	t.Helper()
	switch d := m.Data.(type) {
	case metricdata.Gauge[int64]:
		return d.DataPoints
	case metricdata.Sum[int64]:
		return d.DataPoints
	default:
		t.Fatalf("%s: unexpected data type %T", m.Name, m.Data)
		return nil
	}
}

func TestRegister_SamplerValues(t *testing.T) {
	mp, reader := newTestReader(t)

	s := NewSampler(48000, 100*time.Millisecond, 80)
	s.SetHostLatency(5 * time.Millisecond)
	feed(s, time.Unix(0, 0), 11, 480, 2*time.Millisecond)
	s.ReportUnderrun()
	s.Fault()

	reg, err := Register(mp, s, Gauges{})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	t.Cleanup(func() { _ = reg.Unregister() })

	rm := collect(t, reader)

	lat := findMetric(rm, "cuemix.latency")
	if lat == nil {
		t.Fatal("cuemix.latency not found")
	}
	g, ok := lat.Data.(metricdata.Gauge[float64])
	if !ok {
		t.Fatalf("cuemix.latency data type = %T, want Gauge[float64]", lat.Data)
	}
	if len(g.DataPoints) != 1 || g.DataPoints[0].Value != 15 {
		t.Errorf("cuemix.latency points = %+v, want single 15", g.DataPoints)
	}

	counters := []struct {
		name string
		want int64
	}{
		{"cuemix.underruns", 1},
		{"cuemix.overruns", 0},
		{"cuemix.render.callbacks", 11},
		{"cuemix.render.frames", 11 * 480},
		{"cuemix.render.faults", 1},
		{"cuemix.stable", 1},
	}
	for _, tc := range counters {
		t.Run(tc.name, func(t *testing.T) {
			m := findMetric(rm, tc.name)
			if m == nil {
				t.Fatalf("%s not found", tc.name)
			}
			pts := int64Points(t, m)
			if len(pts) != 1 || pts[0].Value != tc.want {
				t.Errorf("%s points = %+v, want single %d", tc.name, pts, tc.want)
			}
		})
	}

	// Optional gauges are not observed when nil.
	if m := findMetric(rm, "cuemix.commands.queued"); m != nil && len(int64Points(t, m)) != 0 {
		t.Errorf("cuemix.commands.queued observed without a source")
	}
}

func TestRegister_EngineGauges(t *testing.T) {
	mp, reader := newTestReader(t)

	reg, err := Register(mp, NewSampler(48000, 0, 0), Gauges{
		ActiveCues:     func() int64 { return 2 },
		LoadedCues:     func() int64 { return 5 },
		QueuedCommands:    func() int64 { return 3 },
		Crossfading:       func() bool { return true },
		CrossfadesDropped: func() uint64 { return 4 },
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	t.Cleanup(func() { _ = reg.Unregister() })

	rm := collect(t, reader)

	cues := findMetric(rm, "cuemix.cues")
	if cues == nil {
		t.Fatal("cuemix.cues not found")
	}
	byState := map[string]int64{}
	for _, dp := range int64Points(t, cues) {
		v, _ := dp.Attributes.Value(attribute.Key("state"))
		byState[v.AsString()] = dp.Value
	}
	if byState["loaded"] != 5 || byState["active"] != 2 {
		t.Errorf("cuemix.cues by state = %v, want loaded=5 active=2", byState)
	}

	if pts := int64Points(t, findMetric(rm, "cuemix.commands.queued")); len(pts) != 1 || pts[0].Value != 3 {
		t.Errorf("cuemix.commands.queued = %+v, want 3", pts)
	}
	if pts := int64Points(t, findMetric(rm, "cuemix.crossfade.active")); len(pts) != 1 || pts[0].Value != 1 {
		t.Errorf("cuemix.crossfade.active = %+v, want 1", pts)
	}
	if pts := int64Points(t, findMetric(rm, "cuemix.crossfade.dropped")); len(pts) != 1 || pts[0].Value != 4 {
		t.Errorf("cuemix.crossfade.dropped = %+v, want 4", pts)
	}
}

func TestRegister_Unregister(t *testing.T) {
	mp, reader := newTestReader(t)

	reg, err := Register(mp, NewSampler(48000, 0, 0), Gauges{})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Unregister(); err != nil {
		t.Fatalf("Unregister: %v", err)
	}

	rm := collect(t, reader)
	if m := findMetric(rm, "cuemix.render.callbacks"); m != nil && len(int64Points(t, m)) != 0 {
		t.Error("callback still observed after Unregister")
	}
}

// InitProvider registers with the global Prometheus registry, so it can
// only be exercised once per test binary.
func TestInitProvider(t *testing.T) {
	mp, shutdown, err := InitProvider(ProviderConfig{ServiceVersion: "test", InstanceID: "instance-1"})
	if err != nil {
		t.Fatalf("InitProvider() error = %v", err)
	}
	if otel.GetMeterProvider() != mp {
		t.Error("InitProvider() did not install the global meter provider")
	}

	reg, err := Register(mp, NewSampler(48000, DefaultWindow, DefaultCPUThreshold), Gauges{})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := reg.Unregister(); err != nil {
		t.Errorf("Unregister() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}
