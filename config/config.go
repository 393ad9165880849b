// SPDX-License-Identifier: EPL-2.0

// Package config is the YAML show configuration for the cuemix CLI.
package config

import "log/slog"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level converts l to a slog level; unknown values map to info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Backend selects the audio output.
type Backend string

const (
	BackendOto     Backend = "oto"
	BackendBeep    Backend = "beep"
	BackendOffline Backend = "offline"
)

// IsValid reports whether b is a recognised backend.
func (b Backend) IsValid() bool {
	switch b {
	case BackendOto, BackendBeep, BackendOffline:
		return true
	}
	return false
}

// Config is the root of a show file.
type Config struct {
	Audio   AudioConfig   `yaml:"audio"`
	Engine  EngineConfig  `yaml:"engine"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Cues    []CueConfig   `yaml:"cues"`
	Script  ScriptConfig  `yaml:"script"`
}

// AudioConfig describes the output device and session format.
type AudioConfig struct {
	Backend    Backend `yaml:"backend"`
	SampleRate int     `yaml:"sample_rate"`
	Channels   int     `yaml:"channels"`

	// BufferSize is the number of frames rendered per pull.
	BufferSize int `yaml:"buffer_size"`

	// DeviceName is only used to pick suggested settings; output always
	// goes to the system default device.
	DeviceName string `yaml:"device_name"`

	TargetLatencyMs float64 `yaml:"target_latency_ms"`
	HostLatencyMs   float64 `yaml:"host_latency_ms"`
}

// EngineConfig tunes the mixing engine.
type EngineConfig struct {
	QueueCapacity          int    `yaml:"queue_capacity"`
	CrossfadeQueueCapacity int    `yaml:"crossfade_queue_capacity"`
	DefaultCurve           string `yaml:"default_curve"`
	// CustomCurve holds the points of the "custom" curve.
	CustomCurve     []float64 `yaml:"custom_curve"`
	DefaultDuration float64   `yaml:"default_crossfade_seconds"`
	AutoStartTarget *bool     `yaml:"auto_start_target"`
	// MasterVolume is nil until ApplyDefaults; an explicit 0 is kept.
	MasterVolume *float64 `yaml:"master_volume"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level LogLevel `yaml:"level"`
}

// MetricsConfig controls the Prometheus endpoint. An empty ListenAddr
// disables it.
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// CueConfig is a cue loaded at startup.
type CueConfig struct {
	ID     string   `yaml:"id"`
	Path   string   `yaml:"path"`
	Volume *float64 `yaml:"volume"`
	Pan    float64  `yaml:"pan"`
	Loop   bool     `yaml:"loop"`
}

// ScriptConfig names a show script run after the cues are loaded.
type ScriptConfig struct {
	Path string `yaml:"path"`
}
