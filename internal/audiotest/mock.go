// SPDX-License-Identifier: EPL-2.0

// Package audiotest holds signal generators shared by the tests.
package audiotest

import (
	"io"
	"math"
)

// MockSource is a test helper that generates audio data for testing.
// It implements the audio.Source interface (without importing it to avoid cycles).
type MockSource struct {
	sampleRate   int
	channels     int
	totalSamples int // Total samples to generate (per channel)
	generated    int // Samples generated so far (per channel)
	waveform     func(sample int, channel int) float32
	closed       bool
}

// NewMockSource creates a new mock audio source.
// totalSamples is the total number of samples per channel to generate.
func NewMockSource(sampleRate, channels, totalSamples int, waveform func(sample int, channel int) float32) *MockSource {
	return &MockSource{
		sampleRate:   sampleRate,
		channels:     channels,
		totalSamples: totalSamples,
		waveform:     waveform,
	}
}

// NewSilentSource creates a mock source that generates silence (all zeros).
func NewSilentSource(sampleRate, channels, totalSamples int) *MockSource {
	return NewConstantSource(sampleRate, channels, totalSamples, 0)
}

// NewSineSource creates a mock source that generates a sine wave.
func NewSineSource(sampleRate, channels, totalSamples int, frequency float64) *MockSource {
	return NewMockSource(sampleRate, channels, totalSamples, func(sample int, _ int) float32 {
		return Sine(sample, sampleRate, frequency)
	})
}

// NewConstantSource creates a mock source with constant value.
func NewConstantSource(sampleRate, channels, totalSamples int, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, totalSamples, func(int, int) float32 {
		return value
	})
}

func (m *MockSource) SampleRate() int { return m.sampleRate }
func (m *MockSource) Channels() int   { return m.channels }
func (m *MockSource) Close() error    { m.closed = true; return nil }

// Closed reports whether Close was called.
func (m *MockSource) Closed() bool { return m.closed }

// Reset resets the generated sample counter to allow re-reading
func (m *MockSource) Reset() {
	m.generated = 0
}

func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	if m.generated >= m.totalSamples {
		return 0, io.EOF
	}

	frames := min(len(dst)/m.channels, m.totalSamples-m.generated)
	for f := range frames {
		for ch := range m.channels {
			dst[f*m.channels+ch] = m.waveform(m.generated+f, ch)
		}
	}
	m.generated += frames

	if m.generated >= m.totalSamples {
		return frames * m.channels, io.EOF
	}

	return frames * m.channels, nil
}

// Sine is sample i of a unit sine at frequency Hz.
func Sine(i, sampleRate int, frequency float64) float32 {
	t := float64(i) / float64(sampleRate)
	return float32(math.Sin(2 * math.Pi * frequency * t))
}

// ConstPlanes builds planar PCM data where every sample equals v.
func ConstPlanes(channels, frames int, v float32) [][]float32 {
	return Planes(channels, frames, func(int, int) float32 { return v })
}

// SinePlanes builds planar PCM data holding the same sine on every channel.
func SinePlanes(channels, frames, sampleRate int, frequency float64) [][]float32 {
	return Planes(channels, frames, func(i, _ int) float32 {
		return Sine(i, sampleRate, frequency)
	})
}

// Planes builds planar PCM data from a generator.
func Planes(channels, frames int, gen func(sample, channel int) float32) [][]float32 {
	data := make([][]float32, channels)
	for c := range data {
		data[c] = make([]float32, frames)
		for i := range frames {
			data[c][i] = gen(i, c)
		}
	}

	return data
}

// Buffers allocates a zeroed planar output block.
func Buffers(channels, frames int) [][]float32 {
	out := make([][]float32, channels)
	for c := range out {
		out[c] = make([]float32, frames)
	}

	return out
}

// Near reports whether a and b differ by at most tol.
func Near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
