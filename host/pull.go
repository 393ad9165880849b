// SPDX-License-Identifier: EPL-2.0

package host

import (
	"encoding/binary"
	"math"
)

const bytesPerSample = 4

// pullReader turns a Renderer into the io.Reader oto pulls from. Output is
// interleaved little-endian float32.
type pullReader struct {
	r      Renderer
	planes [][]float32
	block  int
}

func newPullReader(r Renderer, block int) *pullReader {
	return &pullReader{
		r:      r,
		planes: planes(r.Channels(), block),
		block:  block,
	}
}

// Read always fills p. Trailing bytes that do not make a whole frame are
// zeroed.
func (p *pullReader) Read(b []byte) (int, error) {
	ch := len(p.planes)
	frameBytes := ch * bytesPerSample
	frames := len(b) / frameBytes

	for off := 0; off < frames; {
		n := min(frames-off, p.block)
		p.r.Render(p.planes, n)

		out := b[off*frameBytes:]
		for i := range n {
			for c, plane := range p.planes {
				binary.LittleEndian.PutUint32(out[(i*ch+c)*bytesPerSample:], math.Float32bits(plane[i]))
			}
		}
		off += n
	}
	clear(b[frames*frameBytes:])

	return len(b), nil
}
