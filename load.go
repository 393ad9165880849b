// SPDX-License-Identifier: EPL-2.0

package cuemix

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ik5/cuemix/audio"
	"github.com/ik5/cuemix/cueid"
	"github.com/ik5/cuemix/formats/aiff"
	"github.com/ik5/cuemix/formats/mp3"
	"github.com/ik5/cuemix/formats/vorbis"
	"github.com/ik5/cuemix/formats/wav"
)

// NewDecoderRegistry returns a registry with every bundled decoder,
// keyed by file extension.
func NewDecoderRegistry() *audio.Registry {
	r := audio.NewRegistry()
	r.Register("wav", wav.Decoder{})
	r.Register("wave", wav.Decoder{})
	r.Register("aiff", aiff.Decoder{})
	r.Register("aif", aiff.Decoder{})
	r.Register("mp3", mp3.Decoder{})
	r.Register("ogg", vorbis.Decoder{})
	r.Register("oga", vorbis.Decoder{})

	return r
}

// CueFile names a file to load as a cue.
type CueFile struct {
	ID   string
	Path string
}

// LoadCue decodes path and loads it as cue id. On failure it returns false
// and LastError says why.
func (e *Engine) LoadCue(id, path string) bool {
	if err := e.loadFile(id, path); err != nil {
		return e.fail(err)
	}

	return true
}

// LoadPCM loads an already decoded clip as cue id. The engine owns pcm from
// then on; the caller must not modify it.
func (e *Engine) LoadPCM(id string, pcm *audio.PCM) bool {
	if err := e.load(id, "", pcm); err != nil {
		return e.fail(err)
	}

	return true
}

// LoadCues decodes files in parallel and loads each as a cue. It stops at
// the first failure or when ctx is done; cues loaded before that stay
// loaded.
func (e *Engine) LoadCues(ctx context.Context, files []CueFile) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for _, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return e.loadFile(f.ID, f.Path)
		})
	}

	if err := g.Wait(); err != nil {
		e.fail(err)
		return err
	}

	return nil
}

func (e *Engine) loadFile(id, path string) error {
	pcm, err := e.decodeFile(path)
	if err != nil {
		return fmt.Errorf("cue %q: %w", id, err)
	}

	return e.load(id, path, pcm)
}

func (e *Engine) decodeFile(path string) (*audio.PCM, error) {
	dec, ok := e.registry.ForPath(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", audio.ErrUnknownFormat, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	src, err := dec.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if e.channels == 1 && src.Channels() > 1 {
		src = audio.NewMonoMixer(src)
	}

	pcm, err := audio.ReadPCM(src)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	return pcm, nil
}

func (e *Engine) load(id, source string, pcm *audio.PCM) error {
	cid, err := cueid.New(id)
	if err != nil {
		return fmt.Errorf("cue %q: %w", id, err)
	}
	if err := e.bus.Load(cid, source, pcm); err != nil {
		return err
	}

	e.log.Info("cue loaded",
		"cue", id,
		"source", source,
		"channels", pcm.Channels(),
		"seconds", pcm.Seconds(),
	)

	return nil
}
