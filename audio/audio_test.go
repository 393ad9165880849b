// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"io"
	"slices"
	"sync"
	"testing"

	"github.com/ik5/cuemix/internal/audiotest"
)

// mockDecoder is a test decoder implementation
type mockDecoder struct {
	name string
}

func (d *mockDecoder) Decode(io.Reader) (Source, error) {
	return audiotest.NewSilentSource(44100, 2, 100), nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	decoder := &mockDecoder{name: "wav"}
	registry.Register("wav", decoder)

	got, ok := registry.Get("wav")
	if !ok {
		t.Fatal("Registry.Get() failed to retrieve registered decoder")
	}
	if got != decoder {
		t.Error("Registry.Get() returned different decoder instance")
	}

	if _, ok := registry.Get("WAV"); !ok {
		t.Error("Registry.Get() is case sensitive, want case insensitive")
	}
	if _, ok := registry.Get("flac"); ok {
		t.Error("Registry.Get() returned ok=true for non-existent format")
	}
}

func TestRegistry_Overwrite(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	first := &mockDecoder{name: "first"}
	second := &mockDecoder{name: "second"}

	registry.Register("wav", first)
	registry.Register("wav", second)

	if got, _ := registry.Get("wav"); got != second {
		t.Error("Registry.Get() did not return the overwritten decoder")
	}
}

func TestRegistry_ForPath(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	wavDec := &mockDecoder{name: "wav"}
	oggDec := &mockDecoder{name: "ogg"}
	registry.Register("wav", wavDec)
	registry.Register("ogg", oggDec)

	tests := []struct {
		path   string
		want   Decoder
		wantOK bool
	}{
		{"cues/intro.wav", wavDec, true},
		{"/abs/path/Theme.WAV", wavDec, true},
		{"music.ogg", oggDec, true},
		{"track.flac", nil, false},
		{"noextension", nil, false},
		{"dir.wav/file", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			got, ok := registry.ForPath(tt.path)
			if ok != tt.wantOK {
				t.Fatalf("ForPath(%q) ok = %v, want %v", tt.path, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ForPath(%q) returned wrong decoder", tt.path)
			}
		})
	}
}

func TestRegistry_Formats(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	for _, f := range []string{"ogg", "wav", "aiff"} {
		registry.Register(f, &mockDecoder{name: f})
	}

	want := []string{"aiff", "ogg", "wav"}
	if got := registry.Formats(); !slices.Equal(got, want) {
		t.Errorf("Formats() = %v, want %v", got, want)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	decoder := &mockDecoder{name: "test"}

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			registry.Register("format", decoder)
		}()
		go func() {
			defer wg.Done()
			_, _ = registry.Get("format")
		}()
	}
	wg.Wait()

	if got, ok := registry.Get("format"); !ok || got != decoder {
		t.Error("Registry returned wrong decoder after concurrent operations")
	}
}

func TestReadPCM(t *testing.T) {
	t.Parallel()

	src := audiotest.NewMockSource(48000, 2, 10000, func(i, ch int) float32 {
		if ch == 0 {
			return float32(i) / 10000
		}
		return -float32(i) / 10000
	})

	pcm, err := ReadPCM(src)
	if err != nil {
		t.Fatalf("ReadPCM() error = %v", err)
	}
	if pcm.SampleRate != 48000 {
		t.Errorf("SampleRate = %d, want 48000", pcm.SampleRate)
	}
	if pcm.Channels() != 2 {
		t.Errorf("Channels() = %d, want 2", pcm.Channels())
	}
	if pcm.Frames() != 10000 {
		t.Errorf("Frames() = %d, want 10000", pcm.Frames())
	}
	for _, i := range []int{0, 4095, 4096, 9999} {
		want := float32(i) / 10000
		if pcm.Data[0][i] != want || pcm.Data[1][i] != -want {
			t.Errorf("frame %d = (%v, %v), want (%v, %v)", i, pcm.Data[0][i], pcm.Data[1][i], want, -want)
		}
	}
	if !src.Closed() {
		t.Error("ReadPCM() did not close the source")
	}
}

func TestReadPCM_MonoMixer(t *testing.T) {
	t.Parallel()

	src := audiotest.NewMockSource(44100, 2, 300, func(_, ch int) float32 {
		return float32(ch)
	})

	pcm, err := ReadPCM(NewMonoMixer(src))
	if err != nil {
		t.Fatalf("ReadPCM() error = %v", err)
	}
	if pcm.Channels() != 1 || pcm.Frames() != 300 {
		t.Fatalf("got %d channels x %d frames, want 1 x 300", pcm.Channels(), pcm.Frames())
	}
	if pcm.Data[0][10] != 0.5 {
		t.Errorf("Data[0][10] = %v, want 0.5", pcm.Data[0][10])
	}
}

type stallingSource struct{}

func (stallingSource) SampleRate() int                    { return 8000 }
func (stallingSource) Channels() int                      { return 1 }
func (stallingSource) ReadSamples([]float32) (int, error) { return 0, nil }
func (stallingSource) Close() error                       { return nil }

type failingSource struct{ stallingSource }

func (failingSource) ReadSamples([]float32) (int, error) { return 0, errors.New("boom") }

func TestReadPCM_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     Source
		wantErr error
	}{
		{"empty stream", audiotest.NewSilentSource(8000, 1, 0), ErrEmptyPCM},
		{"no channels", audiotest.NewSilentSource(8000, 0, 10), ErrNoChannels},
		{"bad rate", audiotest.NewSilentSource(0, 1, 10), ErrInvalidSampleRate},
		{"stalled", stallingSource{}, ErrSourceStalled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := ReadPCM(tt.src); !errors.Is(err, tt.wantErr) {
				t.Errorf("ReadPCM() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := ReadPCM(failingSource{}); err == nil {
		t.Error("ReadPCM() on failing source returned nil error")
	}
}

func TestPCM_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pcm     PCM
		wantErr error
	}{
		{"ok", PCM{SampleRate: 48000, Data: audiotest.ConstPlanes(2, 4, 0)}, nil},
		{"ragged", PCM{SampleRate: 48000, Data: [][]float32{{0, 0}, {0}}}, ErrRaggedChannels},
		{"no channels", PCM{SampleRate: 48000}, ErrNoChannels},
		{"empty", PCM{SampleRate: 48000, Data: [][]float32{{}}}, ErrEmptyPCM},
		{"zero rate", PCM{Data: audiotest.ConstPlanes(1, 4, 0)}, ErrInvalidSampleRate},
	}

	for _, tt := range tests {
		if err := tt.pcm.Validate(); !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: Validate() error = %v, want %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestPCM_Seconds(t *testing.T) {
	t.Parallel()

	p := PCM{SampleRate: 48000, Data: audiotest.ConstPlanes(1, 24000, 0)}
	if got := p.Seconds(); got != 0.5 {
		t.Errorf("Seconds() = %v, want 0.5", got)
	}
	if got := p.Duration().Milliseconds(); got != 500 {
		t.Errorf("Duration() = %dms, want 500ms", got)
	}
}

func BenchmarkRegistry_Get(b *testing.B) {
	registry := NewRegistry()
	registry.Register("wav", &mockDecoder{})

	b.ReportAllocs()
	for b.Loop() {
		_, _ = registry.Get("wav")
	}
}
