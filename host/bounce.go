// SPDX-License-Identifier: EPL-2.0

package host

import (
	"context"
	"fmt"
	"io"

	"github.com/ik5/cuemix/formats/wav"
)

// BounceConfig describes an offline render.
type BounceConfig struct {
	Frames   int
	Block    int
	BitDepth int
}

// Bounce renders cfg.Frames frames from r into w as a WAV file, one block
// per Render call, and returns the number of frames written. It stops
// early with ctx's error when ctx is done; the file written so far is
// still finalized.
func Bounce(ctx context.Context, r Renderer, w io.WriteSeeker, cfg BounceConfig) (int, error) {
	if r == nil {
		return 0, ErrNoRenderer
	}
	if cfg.Block <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidBlock, cfg.Block)
	}

	ww, err := wav.NewWriter(w, r.SampleRate(), r.Channels(), cfg.BitDepth)
	if err != nil {
		return 0, err
	}

	buf := planes(r.Channels(), cfg.Block)
	var renderErr error
	for done := 0; done < cfg.Frames; {
		if renderErr = ctx.Err(); renderErr != nil {
			break
		}

		n := min(cfg.Frames-done, cfg.Block)
		r.Render(buf, n)
		if renderErr = ww.WritePlanar(buf, n); renderErr != nil {
			break
		}
		done += n
	}

	if err := ww.Close(); err != nil && renderErr == nil {
		renderErr = err
	}

	return ww.Frames(), renderErr
}
