// SPDX-License-Identifier: EPL-2.0

// Package intpcm adapts go-audio integer PCM decoders to audio.Source.
package intpcm

import (
	"io"

	goaudio "github.com/go-audio/audio"

	"github.com/ik5/cuemix/audio"
	"github.com/ik5/cuemix/utils"
)

// Reader is the part of the go-audio wav and aiff decoders a Source needs.
type Reader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// Source streams a Reader as interleaved float32.
type Source struct {
	dec        Reader
	sampleRate int
	channels   int
	bitDepth   int
	intBuf     *goaudio.IntBuffer
	done       bool
}

var _ audio.Source = (*Source)(nil)

// NewSource wraps dec. bitDepth must satisfy utils.SupportedBitDepth.
func NewSource(dec Reader, bitDepth int) *Source {
	f := dec.Format()

	return &Source{
		dec:        dec,
		sampleRate: f.SampleRate,
		channels:   f.NumChannels,
		bitDepth:   bitDepth,
	}
}

func (s *Source) SampleRate() int { return s.sampleRate }
func (s *Source) Channels() int   { return s.channels }
func (s *Source) BitDepth() int   { return s.bitDepth }
func (s *Source) Close() error    { return nil }

func (s *Source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if s.done {
		return 0, io.EOF
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < len(dst) {
		s.intBuf = &goaudio.IntBuffer{
			Data:           make([]int, len(dst)),
			Format:         s.dec.Format(),
			SourceBitDepth: s.bitDepth,
		}
	} else {
		s.intBuf.Data = s.intBuf.Data[:len(dst)]
	}

	n, err := s.dec.PCMBuffer(s.intBuf)
	for i := range n {
		dst[i] = utils.IntToFloat32(s.intBuf.Data[i], s.bitDepth)
	}

	switch {
	case err == io.EOF:
		s.done = true
	case err != nil:
		return n, err
	case n < len(dst):
		// go-audio reports a short read, not io.EOF, at the end of data.
		s.done = true
	}
	if n == 0 && s.done {
		return 0, io.EOF
	}

	return n, nil
}
