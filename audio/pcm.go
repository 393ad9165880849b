// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// readChunkFrames is how many frames ReadPCM requests per ReadSamples call.
const readChunkFrames = 4096

// maxEmptyReads bounds how many consecutive (0, nil) reads ReadPCM accepts
// before giving up on a source.
const maxEmptyReads = 64

// PCM is a fully decoded, planar clip. Data[c][i] is sample i of channel c.
// Once handed to the mixer it is never written again.
type PCM struct {
	SampleRate int
	Data       [][]float32
}

// Channels is the number of planes.
func (p *PCM) Channels() int { return len(p.Data) }

// Frames is the per-channel sample count.
func (p *PCM) Frames() int {
	if len(p.Data) == 0 {
		return 0
	}

	return len(p.Data[0])
}

// Seconds is the clip length in seconds.
func (p *PCM) Seconds() float64 {
	if p.SampleRate <= 0 {
		return 0
	}

	return float64(p.Frames()) / float64(p.SampleRate)
}

// Duration is Seconds as a time.Duration.
func (p *PCM) Duration() time.Duration {
	return time.Duration(p.Seconds() * float64(time.Second))
}

// Validate checks that p can be played.
func (p *PCM) Validate() error {
	if p.SampleRate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSampleRate, p.SampleRate)
	}
	if len(p.Data) == 0 {
		return ErrNoChannels
	}

	frames := len(p.Data[0])
	if frames == 0 {
		return ErrEmptyPCM
	}
	for c := 1; c < len(p.Data); c++ {
		if len(p.Data[c]) != frames {
			return fmt.Errorf("%w: channel %d has %d frames, want %d", ErrRaggedChannels, c, len(p.Data[c]), frames)
		}
	}

	return nil
}

// ReadPCM drains src into a planar PCM clip and closes it. A trailing
// partial frame is dropped.
func ReadPCM(src Source) (*PCM, error) {
	defer src.Close()

	channels := src.Channels()
	if channels <= 0 {
		return nil, ErrNoChannels
	}

	p := &PCM{
		SampleRate: src.SampleRate(),
		Data:       make([][]float32, channels),
	}
	buf := make([]float32, readChunkFrames*channels)
	empty := 0

	for {
		n, err := src.ReadSamples(buf)
		frames := n / channels
		for c := range channels {
			plane := p.Data[c]
			for f := range frames {
				plane = append(plane, buf[f*channels+c])
			}
			p.Data[c] = plane
		}

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading samples: %w", err)
		}

		if n == 0 {
			empty++
			if empty >= maxEmptyReads {
				return nil, ErrSourceStalled
			}
			continue
		}
		empty = 0
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}
