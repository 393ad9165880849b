// SPDX-License-Identifier: EPL-2.0

package host

import "testing"

func TestClassifyDevice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want HardwareType
	}{
		{"Universal Audio Apollo Twin", UADApollo},
		{"UAD-2 Satellite", UADApollo},
		{"Allen&Heath dLive", AllenHeathAvantis},
		{"AVANTIS Dante", AllenHeathAvantis},
		{"DiGiCo SD9 MADI", DiGiCoSD9},
		{"Yamaha Steinberg USB", YamahaCL5},
		{"Behringer X32 USB", BehringerX32},
		{"Fireface UCX II", RMEFireface},
		{"Focusrite USB ASIO", FocusriteScarlett},
		{"Scarlett 2i2 USB", FocusriteScarlett},
		{"ASIO4ALL v2", GenericASIO},
		{"Built-in Output", Unknown},
		{"", Unknown},
	}

	for _, tt := range tests {
		if got := ClassifyDevice(tt.name); got != tt.want {
			t.Errorf("ClassifyDevice(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestHardwareType_String(t *testing.T) {
	t.Parallel()

	if got := AllenHeathAvantis.String(); got != "Allen & Heath Avantis" {
		t.Errorf("String() = %q", got)
	}
	if got := HardwareType(99).String(); got != "Unknown" {
		t.Errorf("out of range String() = %q, want Unknown", got)
	}
}

func TestIsProfessionalLatencyCapable(t *testing.T) {
	t.Parallel()

	for hw := GenericASIO; hw <= FocusriteScarlett; hw++ {
		if !IsProfessionalLatencyCapable(hw) {
			t.Errorf("IsProfessionalLatencyCapable(%v) = false, want true", hw)
		}
	}
	if IsProfessionalLatencyCapable(Unknown) {
		t.Error("IsProfessionalLatencyCapable(Unknown) = true, want false")
	}
}

func TestSettingsFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		hw      HardwareType
		buffer  int
		latency float64
	}{
		{UADApollo, 64, 1.5},
		{AllenHeathAvantis, 64, 2},
		{RMEFireface, 64, 64 * 1000.0 / 48000},
		{BehringerX32, 128, 5},
		{Unknown, 256, 256 * 1000.0 / 48000},
	}

	for _, tt := range tests {
		got := SettingsFor(tt.hw)
		if got.SampleRate != 48000 || got.Channels != 2 {
			t.Errorf("SettingsFor(%v) = %d Hz, %d ch, want 48000, 2", tt.hw, got.SampleRate, got.Channels)
		}
		if got.BufferSize != tt.buffer {
			t.Errorf("SettingsFor(%v).BufferSize = %d, want %d", tt.hw, got.BufferSize, tt.buffer)
		}
		if got.TargetLatencyMs != tt.latency {
			t.Errorf("SettingsFor(%v).TargetLatencyMs = %v, want %v", tt.hw, got.TargetLatencyMs, tt.latency)
		}
	}
}

func TestCapabilitiesOf(t *testing.T) {
	t.Parallel()

	if c := CapabilitiesOf(RMEFireface); !c.LowLatency || c.MinLatencyMs != 1 || c.MaxChannels != 30 {
		t.Errorf("CapabilitiesOf(RMEFireface) = %+v", c)
	}
	if c := CapabilitiesOf(YamahaCL5); c.LowLatency || c.MinBufferSize != 128 {
		t.Errorf("CapabilitiesOf(YamahaCL5) = %+v, want generic", c)
	}
}
