// SPDX-License-Identifier: EPL-2.0

package config_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ik5/cuemix/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %q: %v", path, err)
	}
}

func startWatch(t *testing.T, path string) <-chan *config.Config {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan *config.Config, 16)
	done := make(chan error, 1)
	go func() {
		done <- config.Watch(ctx, path, func(c *config.Config) { got <- c }, slog.New(slog.DiscardHandler))
	}()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	})

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	return got
}

// waitFor returns the first reload whose master volume is want.
func waitFor(t *testing.T, got <-chan *config.Config, want float64) *config.Config {
	t.Helper()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-got:
			if *c.Engine.MasterVolume == want {
				return c
			}
		case <-deadline:
			t.Fatalf("no reload with master_volume %v", want)
			return nil
		}
	}
}

func TestWatch_DetectsChange(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "show.yaml")
	writeFile(t, path, "engine:\n  master_volume: 0.5\n")
	got := startWatch(t, path)

	writeFile(t, path, "engine:\n  master_volume: 0.25\ncues:\n  - {id: a, path: a.wav}\n")
	c := waitFor(t, got, 0.25)
	if want := filepath.Join(filepath.Dir(path), "a.wav"); c.Cues[0].Path != want {
		t.Errorf("reloaded cue path = %q, want %q", c.Cues[0].Path, want)
	}
}

func TestWatch_SkipsInvalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "show.yaml")
	writeFile(t, path, "engine:\n  master_volume: 0.5\n")
	got := startWatch(t, path)

	writeFile(t, path, "engine:\n  master_volume: 7\n")
	writeFile(t, path, "engine:\n  master_volume: 0.75\n")

	waitFor(t, got, 0.75)
	select {
	case c := <-got:
		if *c.Engine.MasterVolume == 7 {
			t.Error("invalid config was delivered")
		}
	default:
	}
}

func TestWatch_AtomicRename(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "show.yaml")
	writeFile(t, path, "engine:\n  master_volume: 0.5\n")
	got := startWatch(t, path)

	tmp := filepath.Join(dir, ".show.yaml.swp")
	writeFile(t, tmp, "engine:\n  master_volume: 0.3\n")
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	waitFor(t, got, 0.3)
}

func TestWatch_MissingDirectory(t *testing.T) {
	t.Parallel()

	err := config.Watch(context.Background(), filepath.Join(t.TempDir(), "gone", "show.yaml"), func(*config.Config) {}, nil)
	if err == nil {
		t.Error("Watch() error = nil, want error for missing directory")
	}
}
