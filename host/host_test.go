// SPDX-License-Identifier: EPL-2.0

package host

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ik5/cuemix/audio"
	"github.com/ik5/cuemix/formats/wav"
)

// rampRenderer writes a running frame counter, scaled, into channel ch as
// (frame+1)*step*(ch+1), so interleaving and block splits are visible.
type rampRenderer struct {
	rate     int
	channels int
	step     float32
	frame    int
	calls    []int
}

func (r *rampRenderer) SampleRate() int { return r.rate }
func (r *rampRenderer) Channels() int   { return r.channels }

func (r *rampRenderer) Render(out [][]float32, frames int) {
	r.calls = append(r.calls, frames)
	for i := range frames {
		r.frame++
		for ch := range out {
			out[ch][i] = float32(r.frame) * r.step * float32(ch+1)
		}
	}
}

func TestPullReader(t *testing.T) {
	t.Parallel()

	r := &rampRenderer{rate: 48000, channels: 2, step: 0.01}
	p := newPullReader(r, 3)

	// 7 whole frames plus 5 stray bytes
	buf := make([]byte, 7*2*4+5)
	for i := range buf {
		buf[i] = 0xff
	}

	n, err := p.Read(buf)
	if err != nil || n != len(buf) {
		t.Fatalf("Read() = %d, %v, want %d, nil", n, err, len(buf))
	}
	if want := []int{3, 3, 1}; len(r.calls) != len(want) || r.calls[0] != 3 || r.calls[2] != 1 {
		t.Errorf("render calls = %v, want %v", r.calls, want)
	}

	for frame := range 7 {
		for ch := range 2 {
			off := (frame*2 + ch) * 4
			got := math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
			want := float32(frame+1) * 0.01 * float32(ch+1)
			if got != want {
				t.Errorf("frame %d ch %d = %v, want %v", frame, ch, got, want)
			}
		}
	}
	for i, b := range buf[7*8:] {
		if b != 0 {
			t.Errorf("trailing byte %d = %#x, want 0", i, b)
		}
	}
}

func TestStreamer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		channels int
		right    float64
	}{
		{"mono duplicated", 1, 1},
		{"stereo", 2, 2},
		{"surround keeps front pair", 6, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := &rampRenderer{rate: 44100, channels: tt.channels, step: 0.125}
			s, err := NewStreamer(r, 4)
			if err != nil {
				t.Fatalf("NewStreamer() error = %v", err)
			}
			if got := s.Format().SampleRate; got != 44100 {
				t.Errorf("Format().SampleRate = %v, want 44100", got)
			}

			samples := make([][2]float64, 6)
			n, ok := s.Stream(samples)
			if n != 6 || !ok {
				t.Fatalf("Stream() = %d, %v, want 6, true", n, ok)
			}
			if s.Err() != nil {
				t.Errorf("Err() = %v", s.Err())
			}

			for i, frame := range samples {
				base := float64(i+1) * 0.125
				if frame[0] != base || frame[1] != base*tt.right {
					t.Errorf("frame %d = %v, want [%v %v]", i, frame, base, base*tt.right)
				}
			}
		})
	}
}

func TestNewStreamer_Errors(t *testing.T) {
	t.Parallel()

	if _, err := NewStreamer(nil, 64); !errors.Is(err, ErrNoRenderer) {
		t.Errorf("nil renderer: error = %v, want %v", err, ErrNoRenderer)
	}
	if _, err := NewStreamer(&rampRenderer{rate: 48000, channels: 2}, 0); !errors.Is(err, ErrInvalidBlock) {
		t.Errorf("zero block: error = %v, want %v", err, ErrInvalidBlock)
	}
	if _, err := NewBeepBackend(nil, 64, 0, nil); !errors.Is(err, ErrNoRenderer) {
		t.Errorf("NewBeepBackend(nil) error = %v, want %v", err, ErrNoRenderer)
	}
}

func TestBeepBackend_CloseBeforeStart(t *testing.T) {
	t.Parallel()

	b, err := NewBeepBackend(&rampRenderer{rate: 48000, channels: 2}, 256, 0, nil)
	if err != nil {
		t.Fatalf("NewBeepBackend() error = %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := b.Start(); !errors.Is(err, ErrClosed) {
		t.Errorf("Start() after Close error = %v, want %v", err, ErrClosed)
	}
}

func bounceFile(t *testing.T, r Renderer, cfg BounceConfig) (string, int, error) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "bounce.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	n, err := Bounce(context.Background(), r, f, cfg)
	return path, n, err
}

func TestBounce(t *testing.T) {
	t.Parallel()

	r := &rampRenderer{rate: 8000, channels: 2, step: 1.0 / 2048}
	path, n, err := bounceFile(t, r, BounceConfig{Frames: 1000, Block: 256, BitDepth: 16})
	if err != nil || n != 1000 {
		t.Fatalf("Bounce() = %d, %v, want 1000, nil", n, err)
	}
	if len(r.calls) != 4 || r.calls[3] != 1000-3*256 {
		t.Errorf("render calls = %v", r.calls)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	src, err := wav.Decoder{}.Decode(f)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	pcm, err := audio.ReadPCM(src)
	if err != nil {
		t.Fatalf("ReadPCM() error = %v", err)
	}
	if pcm.Frames() != 1000 || pcm.Channels() != 2 || pcm.SampleRate != 8000 {
		t.Fatalf("bounced %d frames, %d ch, %d Hz", pcm.Frames(), pcm.Channels(), pcm.SampleRate)
	}
	if got, want := pcm.Data[1][9], float32(10)/2048*2; math.Abs(float64(got-want)) > 1.0/32768 {
		t.Errorf("right[9] = %v, want %v", got, want)
	}
}

func TestBounce_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f, err := os.Create(filepath.Join(t.TempDir(), "bounce.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	n, err := Bounce(ctx, &rampRenderer{rate: 8000, channels: 1}, f, BounceConfig{Frames: 8000, Block: 128, BitDepth: 16})
	if !errors.Is(err, context.Canceled) || n != 0 {
		t.Errorf("Bounce() = %d, %v, want 0, %v", n, err, context.Canceled)
	}
}

func TestBounce_Errors(t *testing.T) {
	t.Parallel()

	r := &rampRenderer{rate: 8000, channels: 1}
	if _, _, err := bounceFile(t, r, BounceConfig{Frames: 10, Block: 0, BitDepth: 16}); !errors.Is(err, ErrInvalidBlock) {
		t.Errorf("zero block: error = %v, want %v", err, ErrInvalidBlock)
	}
	if _, _, err := bounceFile(t, r, BounceConfig{Frames: 10, Block: 8, BitDepth: 12}); !errors.Is(err, wav.ErrUnsupportedBitDepth) {
		t.Errorf("12-bit: error = %v, want %v", err, wav.ErrUnsupportedBitDepth)
	}
	if _, _, err := bounceFile(t, nil, BounceConfig{Frames: 10, Block: 8, BitDepth: 16}); !errors.Is(err, ErrNoRenderer) {
		t.Errorf("nil renderer: error = %v, want %v", err, ErrNoRenderer)
	}
}
