// SPDX-License-Identifier: EPL-2.0

package host

import (
	"slices"
	"strings"
)

// HardwareType is a known family of audio interfaces or consoles.
type HardwareType int

const (
	Unknown HardwareType = iota
	GenericASIO
	UADApollo
	AllenHeathAvantis
	DiGiCoSD9
	YamahaCL5
	BehringerX32
	RMEFireface
	FocusriteScarlett
)

var hardwareNames = [...]string{
	Unknown:           "Unknown",
	GenericASIO:       "Generic ASIO",
	UADApollo:         "UAD Apollo",
	AllenHeathAvantis: "Allen & Heath Avantis",
	DiGiCoSD9:         "DiGiCo SD9",
	YamahaCL5:         "Yamaha CL5",
	BehringerX32:      "Behringer X32",
	RMEFireface:       "RME Fireface",
	FocusriteScarlett: "Focusrite Scarlett",
}

func (t HardwareType) String() string {
	if t < 0 || int(t) >= len(hardwareNames) {
		return hardwareNames[Unknown]
	}
	return hardwareNames[t]
}

// Rules are tried in order; the bare "asio" match comes last.
var deviceRules = []struct {
	hw   HardwareType
	keys []string
}{
	{UADApollo, []string{"apollo", "uad"}},
	{AllenHeathAvantis, []string{"avantis", "allen"}},
	{DiGiCoSD9, []string{"digico", "sd9"}},
	{YamahaCL5, []string{"yamaha", "cl5"}},
	{BehringerX32, []string{"x32", "behringer"}},
	{RMEFireface, []string{"fireface", "rme"}},
	{FocusriteScarlett, []string{"scarlett", "focusrite"}},
	{GenericASIO, []string{"asio"}},
}

// ClassifyDevice maps a device name, as reported by the driver, to a
// hardware family. Matching is a case-insensitive substring search.
func ClassifyDevice(name string) HardwareType {
	lower := strings.ToLower(name)
	for _, rule := range deviceRules {
		if slices.ContainsFunc(rule.keys, func(k string) bool { return strings.Contains(lower, k) }) {
			return rule.hw
		}
	}

	return Unknown
}

// Capabilities is what a hardware family is known to support.
type Capabilities struct {
	LowLatency    bool
	MaxChannels   int
	MinBufferSize int
	SampleRates   []int
	MinLatencyMs  float64
}

var (
	allRates = []int{44100, 48000, 88200, 96000, 176400, 192000}

	genericCaps = Capabilities{
		MaxChannels:   8,
		MinBufferSize: 128,
		SampleRates:   []int{44100, 48000, 96000},
		MinLatencyMs:  5,
	}

	capabilityTable = map[HardwareType]Capabilities{
		UADApollo: {
			LowLatency:    true,
			MaxChannels:   18,
			MinBufferSize: 32,
			SampleRates:   allRates,
			MinLatencyMs:  1.5,
		},
		AllenHeathAvantis: {
			LowLatency:    true,
			MaxChannels:   64,
			MinBufferSize: 32,
			SampleRates:   []int{48000, 96000},
			MinLatencyMs:  2,
		},
		RMEFireface: {
			LowLatency:    true,
			MaxChannels:   30,
			MinBufferSize: 32,
			SampleRates:   allRates,
			MinLatencyMs:  1,
		},
	}
)

// CapabilitiesOf returns the known capabilities of t. Families without
// measured figures get conservative generic values. The returned
// SampleRates slice must not be modified.
func CapabilitiesOf(t HardwareType) Capabilities {
	if c, ok := capabilityTable[t]; ok {
		return c
	}
	return genericCaps
}

// IsProfessionalLatencyCapable reports whether t can run at the small
// buffer sizes live playback needs.
func IsProfessionalLatencyCapable(t HardwareType) bool {
	switch t {
	case UADApollo, AllenHeathAvantis, DiGiCoSD9, YamahaCL5, RMEFireface,
		BehringerX32, FocusriteScarlett, GenericASIO:
		return true
	default:
		return false
	}
}

// Settings is a suggested output configuration.
type Settings struct {
	SampleRate      int
	BufferSize      int
	Channels        int
	TargetLatencyMs float64
}

const (
	preferredRate     = 48000
	defaultBufferSize = 256
)

// SettingsFor suggests settings for t: 48 kHz when supported, the
// smallest safe buffer, and the latency that buffer implies.
func SettingsFor(t HardwareType) Settings {
	caps := CapabilitiesOf(t)

	rate := preferredRate
	if !slices.Contains(caps.SampleRates, rate) {
		rate = caps.SampleRates[0]
	}

	buffer := defaultBufferSize
	if IsProfessionalLatencyCapable(t) {
		buffer = max(caps.MinBufferSize, 64)
	}

	latency := float64(buffer) * 1000 / float64(rate)

	return Settings{
		SampleRate:      rate,
		BufferSize:      buffer,
		Channels:        min(caps.MaxChannels, 2),
		TargetLatencyMs: max(latency, caps.MinLatencyMs),
	}
}
