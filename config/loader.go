// SPDX-License-Identifier: EPL-2.0

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ik5/cuemix/command"
	"github.com/ik5/cuemix/crossfade"
)

// Defaults applied by ApplyDefaults.
const (
	DefaultSampleRate    = 48000
	DefaultChannels      = 2
	DefaultBufferSize    = 256
	DefaultQueueCapacity = command.DefaultCapacity
	DefaultXfadeCapacity = crossfade.DefaultQueueCapacity
	DefaultCurve         = "equal_power"
	DefaultMasterVolume  = 1.0
	DefaultCueVolume     = 1.0
)

// Load reads and validates the show file at path. Relative cue and
// script paths are resolved against the file's directory.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	cfg.resolvePaths(filepath.Dir(path))

	return cfg, nil
}

// LoadFromReader decodes YAML from r, fills defaults and validates the
// result. Unknown keys are an error. An empty document is valid.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}

	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyDefaults fills unset values with their defaults.
func ApplyDefaults(cfg *Config) {
	a := &cfg.Audio
	if a.Backend == "" {
		a.Backend = BackendOto
	}
	if a.SampleRate == 0 {
		a.SampleRate = DefaultSampleRate
	}
	if a.Channels == 0 {
		a.Channels = DefaultChannels
	}
	if a.BufferSize == 0 {
		a.BufferSize = DefaultBufferSize
	}

	e := &cfg.Engine
	if e.QueueCapacity == 0 {
		e.QueueCapacity = DefaultQueueCapacity
	}
	if e.CrossfadeQueueCapacity == 0 {
		e.CrossfadeQueueCapacity = DefaultXfadeCapacity
	}
	if e.DefaultCurve == "" {
		e.DefaultCurve = DefaultCurve
	}
	if e.AutoStartTarget == nil {
		on := true
		e.AutoStartTarget = &on
	}
	if e.DefaultDuration == 0 {
		e.DefaultDuration = crossfade.DefaultDuration
	}
	if e.MasterVolume == nil {
		e.MasterVolume = ptr(DefaultMasterVolume)
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = LogInfo
	}

	for i := range cfg.Cues {
		if cfg.Cues[i].Volume == nil {
			cfg.Cues[i].Volume = ptr(DefaultCueVolume)
		}
	}
}

func ptr[T any](v T) *T { return &v }

// Validate checks that cfg is coherent. It returns every failure joined
// into one error.
func Validate(cfg *Config) error {
	var errs []error

	a := cfg.Audio
	if !a.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("audio.backend %q is invalid; valid values: oto, beep, offline", a.Backend))
	}
	if a.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be positive, got %d", a.SampleRate))
	}
	if a.Channels <= 0 {
		errs = append(errs, fmt.Errorf("audio.channels must be positive, got %d", a.Channels))
	}
	if a.BufferSize <= 0 {
		errs = append(errs, fmt.Errorf("audio.buffer_size must be positive, got %d", a.BufferSize))
	}
	if a.TargetLatencyMs < 0 || a.HostLatencyMs < 0 {
		errs = append(errs, errors.New("audio latencies must not be negative"))
	}

	e := cfg.Engine
	if !isPowerOfTwo(e.QueueCapacity) {
		errs = append(errs, fmt.Errorf("engine.queue_capacity must be a power of two, got %d", e.QueueCapacity))
	}
	if e.CrossfadeQueueCapacity <= 0 {
		errs = append(errs, fmt.Errorf("engine.crossfade_queue_capacity must be positive, got %d", e.CrossfadeQueueCapacity))
	}
	curve, err := crossfade.ParseCurve(e.DefaultCurve)
	if err != nil {
		errs = append(errs, fmt.Errorf("engine.default_curve: %w", err))
	}
	if len(e.CustomCurve) > 0 || curve == crossfade.Custom {
		if _, err := crossfade.NewTable(e.CustomCurve); err != nil {
			errs = append(errs, fmt.Errorf("engine.custom_curve: %w", err))
		}
	}
	if e.DefaultDuration < crossfade.MinDefaultDuration {
		errs = append(errs, fmt.Errorf("engine.default_crossfade_seconds must be at least %v, got %v", crossfade.MinDefaultDuration, e.DefaultDuration))
	}
	if v := e.MasterVolume; v != nil && (*v < 0 || *v > 1) {
		errs = append(errs, fmt.Errorf("engine.master_volume must be in [0, 1], got %v", *v))
	}

	if !cfg.Log.Level.IsValid() {
		errs = append(errs, fmt.Errorf("log.level %q is invalid; valid values: debug, info, warn, error", cfg.Log.Level))
	}

	seen := make(map[string]bool, len(cfg.Cues))
	for i, c := range cfg.Cues {
		switch {
		case c.ID == "":
			errs = append(errs, fmt.Errorf("cues[%d].id is required", i))
		case seen[c.ID]:
			errs = append(errs, fmt.Errorf("cues[%d].id %q is duplicated", i, c.ID))
		}
		seen[c.ID] = true

		if c.Path == "" {
			errs = append(errs, fmt.Errorf("cues[%d].path is required", i))
		}
		if v := c.Volume; v != nil && (*v < 0 || *v > 1) {
			errs = append(errs, fmt.Errorf("cues[%d].volume must be in [0, 1], got %v", i, *v))
		}
		if c.Pan < -1 || c.Pan > 1 {
			errs = append(errs, fmt.Errorf("cues[%d].pan must be in [-1, 1], got %v", i, c.Pan))
		}
	}

	return errors.Join(errs...)
}

func (cfg *Config) resolvePaths(dir string) {
	for i := range cfg.Cues {
		cfg.Cues[i].Path = resolve(dir, cfg.Cues[i].Path)
	}
	if cfg.Script.Path != "" {
		cfg.Script.Path = resolve(dir, cfg.Script.Path)
	}
}

func resolve(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func isPowerOfTwo(n int) bool { return n > 0 && n&(n-1) == 0 }
