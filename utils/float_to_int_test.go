// SPDX-License-Identifier: EPL-2.0

package utils

import (
	"math"
	"testing"
)

func TestFloat32ToInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    float32
		bitDepth int
		want     int
	}{
		{"zero", 0, 16, 0},
		{"max positive", 1, 16, math.MaxInt16},
		{"max negative", -1, 16, math.MinInt16},
		{"half positive", 0.5, 16, 16384},
		{"half negative", -0.5, 16, -16384},
		{"small positive rounds", 0.001, 16, 33},
		{"clamp over max", 1.5, 16, math.MaxInt16},
		{"clamp under min", -100, 16, math.MinInt16},
		{"24 bit max", 1, 24, 1<<23 - 1},
		{"24 bit min", -1, 24, -1 << 23},
		{"24 bit half", 0.5, 24, 1 << 22},
		{"32 bit min", -1, 32, math.MinInt32},
		{"32 bit max", 2, 32, math.MaxInt32},
		{"unknown depth is 16 bit", 1, 12, math.MaxInt16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Float32ToInt(tt.input, tt.bitDepth); got != tt.want {
				t.Errorf("Float32ToInt(%v, %d) = %d, want %d", tt.input, tt.bitDepth, got, tt.want)
			}
		})
	}
}

func TestIntToFloat32(t *testing.T) {
	t.Parallel()

	tests := []struct {
		v        int
		bitDepth int
		want     float32
	}{
		{0, 16, 0},
		{math.MinInt16, 16, -1},
		{16384, 16, 0.5},
		{-1 << 23, 24, -1},
		{1 << 30, 32, 0.5},
	}

	for _, tt := range tests {
		if got := IntToFloat32(tt.v, tt.bitDepth); got != tt.want {
			t.Errorf("IntToFloat32(%d, %d) = %v, want %v", tt.v, tt.bitDepth, got, tt.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	for _, depth := range []int{16, 24} {
		lo, hi := -int(FullScale(depth)), int(FullScale(depth))-1
		step := max(1, (hi-lo)/5000)
		for v := lo; v <= hi; v += step {
			if got := Float32ToInt(IntToFloat32(v, depth), depth); got != v {
				t.Fatalf("%d-bit round trip of %d = %d", depth, v, got)
			}
		}
	}
}

func TestSupportedBitDepth(t *testing.T) {
	t.Parallel()

	for depth, want := range map[int]bool{8: false, 16: true, 24: true, 32: true, 64: false} {
		if got := SupportedBitDepth(depth); got != want {
			t.Errorf("SupportedBitDepth(%d) = %v, want %v", depth, got, want)
		}
	}
}

func BenchmarkFloat32ToInt(b *testing.B) {
	x := float32(0.123)
	for b.Loop() {
		_ = Float32ToInt(x, 16)
	}
}
