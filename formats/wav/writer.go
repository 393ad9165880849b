// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"github.com/ik5/cuemix/audio"
	"github.com/ik5/cuemix/utils"
)

// Writer streams planar float32 blocks into an integer PCM WAV file. The
// header is patched with the final sizes on Close, so w must be seekable.
type Writer struct {
	enc      *gowav.Encoder
	buf      *goaudio.IntBuffer
	channels int
	bitDepth int
	frames   int
	closed   bool
}

// NewWriter starts a WAV file of the given shape. bitDepth is 16, 24 or 32.
func NewWriter(w io.WriteSeeker, sampleRate, channels, bitDepth int) (*Writer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", audio.ErrInvalidSampleRate, sampleRate)
	}
	if channels <= 0 {
		return nil, audio.ErrNoChannels
	}
	if !utils.SupportedBitDepth(bitDepth) {
		return nil, fmt.Errorf("%w: %d bits", ErrUnsupportedBitDepth, bitDepth)
	}

	return &Writer{
		enc: gowav.NewEncoder(w, sampleRate, bitDepth, channels, formatPCM),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: bitDepth,
		},
		channels: channels,
		bitDepth: bitDepth,
	}, nil
}

// Frames is the number of frames written so far.
func (w *Writer) Frames() int { return w.frames }

// WritePlanar interleaves and writes the first n frames of planes.
func (w *Writer) WritePlanar(planes [][]float32, n int) error {
	if w.closed {
		return ErrWriterClosed
	}
	if len(planes) != w.channels {
		return fmt.Errorf("%w: got %d, want %d", ErrChannelMismatch, len(planes), w.channels)
	}
	if n <= 0 {
		return nil
	}

	size := n * w.channels
	if cap(w.buf.Data) < size {
		w.buf.Data = make([]int, size)
	}
	w.buf.Data = w.buf.Data[:size]

	for i := range n {
		for ch, p := range planes {
			w.buf.Data[i*w.channels+ch] = utils.Float32ToInt(p[i], w.bitDepth)
		}
	}
	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("writing wav frames: %w", err)
	}
	w.frames += n

	return nil
}

// Close finalizes the header. It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("finalizing wav: %w", err)
	}

	return nil
}

// Encode writes pcm as a complete WAV file.
func Encode(w io.WriteSeeker, pcm *audio.PCM, bitDepth int) error {
	if pcm == nil {
		return audio.ErrEmptyPCM
	}
	if err := pcm.Validate(); err != nil {
		return err
	}

	ww, err := NewWriter(w, pcm.SampleRate, pcm.Channels(), bitDepth)
	if err != nil {
		return err
	}

	const chunk = 8192
	view := make([][]float32, pcm.Channels())
	for off := 0; off < pcm.Frames(); off += chunk {
		n := min(chunk, pcm.Frames()-off)
		for ch := range view {
			view[ch] = pcm.Data[ch][off : off+n]
		}
		if err := ww.WritePlanar(view, n); err != nil {
			return err
		}
	}

	return ww.Close()
}
