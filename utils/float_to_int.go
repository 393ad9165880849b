// SPDX-License-Identifier: EPL-2.0

// Package utils holds sample conversions shared by the file formats.
package utils

import "math"

// SupportedBitDepth reports whether integer PCM of bitDepth can be
// converted.
func SupportedBitDepth(bitDepth int) bool {
	return bitDepth == 16 || bitDepth == 24 || bitDepth == 32
}

// FullScale is the magnitude of the most negative integer sample at
// bitDepth. It maps to -1.0.
func FullScale(bitDepth int) float64 {
	if !SupportedBitDepth(bitDepth) {
		bitDepth = 16
	}

	return float64(int64(1) << (bitDepth - 1))
}

// IntToFloat32 scales a signed integer sample into [-1,1).
func IntToFloat32(v, bitDepth int) float32 {
	return float32(float64(v) / FullScale(bitDepth))
}

// Float32ToInt quantizes x to a signed integer sample, clamping out of
// range input. It is the inverse of IntToFloat32 for every value that
// function produces.
func Float32ToInt(x float32, bitDepth int) int {
	scale := FullScale(bitDepth)
	v := math.Round(float64(x) * scale)

	return int(max(-scale, min(scale-1, v)))
}
