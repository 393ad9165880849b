// SPDX-License-Identifier: EPL-2.0

// Command cuemix plays a show: it loads the cues listed in a YAML show
// file, opens the audio output and optionally runs a Lua show script.
//
//	cuemix -config show.yaml
//	cuemix -config show.yaml -script act2.lua
//	cuemix -config show.yaml -bounce out.wav -seconds 30
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	charm "github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ik5/cuemix"
	"github.com/ik5/cuemix/config"
	"github.com/ik5/cuemix/crossfade"
	"github.com/ik5/cuemix/host"
	"github.com/ik5/cuemix/showscript"
	"github.com/ik5/cuemix/telemetry"
)

var version = "dev"

var (
	_ host.Renderer         = (*cuemix.Engine)(nil)
	_ showscript.Controller = (*cuemix.Engine)(nil)
)

const (
	bounceBitDepth = 24
	reportInterval = 10 * time.Second
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "show.yaml", "path to the YAML show file")
	scriptPath := flag.String("script", "", "Lua show script; overrides script.path from the show file")
	bouncePath := flag.String("bounce", "", "render offline into this WAV file instead of playing")
	seconds := flag.Float64("seconds", 10, "length of the offline render")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cuemix: %v\n", err)
		return 1
	}
	if *scriptPath != "" {
		cfg.Script.Path = *scriptPath
	}

	logger := newLogger(cfg.Log.Level)
	slog.SetDefault(logger)
	slog.Info("cuemix starting",
		"version", version,
		"config", *configPath,
		"backend", cfg.Audio.Backend,
		"sample_rate", cfg.Audio.SampleRate,
		"channels", cfg.Audio.Channels,
	)
	checkDevice(cfg.Audio)

	eng, err := newEngine(cfg, logger)
	if err != nil {
		slog.Error("failed to create engine", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.ListenAddr != "" {
		shutdown, err := serveMetrics(ctx, eng, cfg.Metrics.ListenAddr)
		if err != nil {
			slog.Error("failed to start metrics", "err", err)
			return 1
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				slog.Warn("metrics shutdown error", "err", err)
			}
		}()
	}

	if err := loadCues(ctx, eng, cfg.Cues, logger); err != nil {
		slog.Error("failed to load cues", "err", err)
		return 1
	}

	go func() {
		err := config.Watch(ctx, *configPath, func(c *config.Config) { applyLevels(eng, c, logger) }, logger)
		if err != nil {
			slog.Warn("config watching disabled", "err", err)
		}
	}()

	if *bouncePath != "" || cfg.Audio.Backend == config.BackendOffline {
		path := *bouncePath
		if path == "" {
			path = "bounce.wav"
		}
		// The script sets the scene; its waits run in wall-clock time.
		if err := runScript(ctx, eng, cfg.Script.Path, logger); err != nil {
			slog.Error("show script failed", "err", err)
			return 1
		}
		if err := bounce(ctx, eng, path, *seconds, cfg.Audio.BufferSize); err != nil {
			slog.Error("bounce failed", "err", err)
			return 1
		}
		return 0
	}

	backend, err := newBackend(eng, cfg.Audio, logger)
	if err != nil {
		slog.Error("failed to open audio output", "err", err)
		return 1
	}
	defer func() {
		if err := backend.Close(); err != nil {
			slog.Warn("audio output close error", "err", err)
		}
	}()
	if err := backend.Start(); err != nil {
		slog.Error("failed to start audio output", "err", err)
		return 1
	}

	go report(ctx, eng)

	if err := runScript(ctx, eng, cfg.Script.Path, logger); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("show script failed", "err", err)
	}

	slog.Info("show running, press Ctrl+C to stop")
	<-ctx.Done()

	slog.Info("shutdown signal received, stopping")
	eng.StopAll()
	return 0
}

func newLogger(level config.LogLevel) *slog.Logger {
	h := charm.NewWithOptions(os.Stderr, charm.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "cuemix",
	})
	if l, err := charm.ParseLevel(string(level)); err == nil {
		h.SetLevel(l)
	}

	return slog.New(h)
}

// checkDevice logs what the configured device is known to handle.
func checkDevice(a config.AudioConfig) {
	if a.DeviceName == "" {
		return
	}

	hw := host.ClassifyDevice(a.DeviceName)
	suggested := host.SettingsFor(hw)
	slog.Info("output device",
		"name", a.DeviceName,
		"type", hw,
		"low_latency", host.IsProfessionalLatencyCapable(hw),
		"suggested_buffer", suggested.BufferSize,
		"suggested_latency_ms", suggested.TargetLatencyMs,
	)

	bufferMs := float64(a.BufferSize) * 1000 / float64(a.SampleRate)
	if a.TargetLatencyMs > 0 && bufferMs > a.TargetLatencyMs {
		slog.Warn("buffer size exceeds target latency",
			"buffer_ms", bufferMs,
			"target_latency_ms", a.TargetLatencyMs,
		)
	}
}

func newEngine(cfg *config.Config, logger *slog.Logger) (*cuemix.Engine, error) {
	curve, err := crossfade.ParseCurve(cfg.Engine.DefaultCurve)
	if err != nil {
		return nil, err
	}

	eng, err := cuemix.New(cfg.Audio.SampleRate, cfg.Audio.Channels,
		cuemix.WithLogger(logger),
		cuemix.WithQueueCapacity(cfg.Engine.QueueCapacity),
		cuemix.WithCrossfadeQueueCapacity(cfg.Engine.CrossfadeQueueCapacity),
		cuemix.WithDefaultCurve(curve),
		cuemix.WithDefaultDuration(cfg.Engine.DefaultDuration),
		cuemix.WithAutoStart(*cfg.Engine.AutoStartTarget),
		cuemix.WithMaxBlock(cfg.Audio.BufferSize),
		cuemix.WithHostLatency(time.Duration(cfg.Audio.HostLatencyMs*float64(time.Millisecond))),
	)
	if err != nil {
		return nil, err
	}
	eng.SetMasterVolume(*cfg.Engine.MasterVolume)
	if len(cfg.Engine.CustomCurve) > 0 && !eng.SetCustomCurve(cfg.Engine.CustomCurve) {
		return nil, eng.LastError()
	}

	return eng, nil
}

func loadCues(ctx context.Context, eng *cuemix.Engine, cues []config.CueConfig, logger *slog.Logger) error {
	files := make([]cuemix.CueFile, len(cues))
	for i, c := range cues {
		files[i] = cuemix.CueFile{ID: c.ID, Path: c.Path}
	}
	if err := eng.LoadCues(ctx, files); err != nil {
		return err
	}

	for _, c := range cues {
		setLevels(eng, c, logger)
	}
	logger.Info("cues loaded", "count", len(cues))

	return nil
}

func setLevels(eng *cuemix.Engine, c config.CueConfig, logger *slog.Logger) {
	volume := config.DefaultCueVolume
	if c.Volume != nil {
		volume = *c.Volume
	}

	ok := eng.SetCueVolume(c.ID, volume) &&
		eng.SetCuePan(c.ID, c.Pan) &&
		eng.SetCueLoop(c.ID, c.Loop)
	if !ok {
		logger.Warn("cue levels not applied", "cue", c.ID, "err", eng.LastError())
	}
}

// applyLevels retunes master and cue levels from a reloaded show file.
// Cues not already loaded are ignored.
func applyLevels(eng *cuemix.Engine, cfg *config.Config, logger *slog.Logger) {
	if cfg.Engine.MasterVolume != nil {
		eng.SetMasterVolume(*cfg.Engine.MasterVolume)
	}
	for _, c := range cfg.Cues {
		if eng.IsCueLoaded(c.ID) {
			setLevels(eng, c, logger)
		}
	}
}

func newBackend(eng *cuemix.Engine, a config.AudioConfig, logger *slog.Logger) (host.Backend, error) {
	buffer := time.Duration(a.TargetLatencyMs * float64(time.Millisecond))

	switch a.Backend {
	case config.BackendBeep:
		return host.NewBeepBackend(eng, a.BufferSize, buffer, logger)
	default:
		return host.NewOtoBackend(eng, host.OtoConfig{Buffer: buffer, Block: a.BufferSize}, logger)
	}
}

func runScript(ctx context.Context, eng *cuemix.Engine, path string, logger *slog.Logger) error {
	if path == "" {
		return nil
	}
	return showscript.New(eng, logger).RunFile(ctx, path)
}

func bounce(ctx context.Context, eng *cuemix.Engine, path string, seconds float64, block int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	frames := int(seconds * float64(eng.SampleRate()))
	n, err := host.Bounce(ctx, eng, f, host.BounceConfig{Frames: frames, Block: block, BitDepth: bounceBitDepth})
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}

	m := eng.Metrics()
	slog.Info("bounce written",
		"path", path,
		"frames", n,
		"seconds", float64(n)/float64(eng.SampleRate()),
		"cpu_percent", m.CPUPercent,
		"faults", m.Faults,
	)

	return nil
}

func serveMetrics(ctx context.Context, eng *cuemix.Engine, addr string) (func(context.Context) error, error) {
	mp, shutdownProvider, err := telemetry.InitProvider(telemetry.ProviderConfig{
		ServiceName:    "cuemix",
		ServiceVersion: version,
		InstanceID:     uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}
	reg, err := eng.RegisterMetrics(mp)
	if err != nil {
		return nil, errors.Join(err, shutdownProvider(ctx))
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", "err", err)
		}
	}()
	slog.Info("metrics listening", "addr", addr)

	return func(ctx context.Context) error {
		return errors.Join(
			srv.Shutdown(ctx),
			reg.Unregister(),
			shutdownProvider(ctx),
		)
	}, nil
}

// report logs the render telemetry periodically and warns when the
// engine is running unstable.
func report(ctx context.Context, eng *cuemix.Engine) {
	t := time.NewTicker(reportInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m := eng.Metrics()
			attrs := []any{
				"latency_ms", m.LatencyMs,
				"cpu_percent", m.CPUPercent,
				"underruns", m.Underruns,
				"faults", m.Faults,
				"active_cues", eng.ActiveCueCount(),
			}
			if m.Stable {
				slog.Debug("render telemetry", attrs...)
			} else {
				slog.Warn("render unstable", attrs...)
			}
		}
	}
}
