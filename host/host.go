// SPDX-License-Identifier: EPL-2.0

package host

import "errors"

// Renderer produces planar float32 audio on demand. *cuemix.Engine
// satisfies it.
type Renderer interface {
	Render(out [][]float32, frames int)
	SampleRate() int
	Channels() int
}

// Backend is a running audio output.
type Backend interface {
	Start() error
	Close() error
}

var (
	// ErrNoRenderer is returned when a backend is built without a renderer.
	ErrNoRenderer = errors.New("host: nil renderer")

	// ErrInvalidBlock is returned for a non-positive block size.
	ErrInvalidBlock = errors.New("host: block size must be positive")

	// ErrClosed is returned when starting a closed backend.
	ErrClosed = errors.New("host: backend closed")
)

// planes allocates channels planar buffers of frames samples each.
func planes(channels, frames int) [][]float32 {
	p := make([][]float32, channels)
	for ch := range p {
		p[ch] = make([]float32, frames)
	}

	return p
}
