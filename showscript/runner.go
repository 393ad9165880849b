// SPDX-License-Identifier: EPL-2.0

// Package showscript runs Lua show scripts against a cue engine.
//
// Scripts run in a sandboxed gopher-lua VM with only the base, table,
// string and math libraries. They drive the engine through the cue and
// xfade tables plus master, wait and log:
//
//	cue.load("intro", "audio/intro.wav")
//	cue.start("intro")
//	wait(5)
//	xfade.start("intro", "act1", 3, "linear")
//	xfade.custom({0, 0.7, 0.9, 1})
//	xfade.queue("act1", "act2", nil, "custom")
//
// A crossfade's length defaults to the engine's default duration. Its
// curve is a name, or a number in [-1,1] where negative values bend toward
// logarithmic and positive ones toward exponential.
//
// Every engine call returns a boolean instead of raising, the same way the
// engine reports failures. Argument type errors also come back as false.
package showscript

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/ik5/cuemix/crossfade"
	"github.com/ik5/cuemix/mixer"
)

// Controller is the part of the engine a script can reach. *cuemix.Engine
// satisfies it.
type Controller interface {
	LoadCue(id, path string) bool
	UnloadCue(id string) bool
	StartCue(id string) bool
	StopCue(id string) bool
	PauseCue(id string) bool
	ResumeCue(id string) bool
	SetCueVolume(id string, v float64) bool
	SetCuePan(id string, p float64) bool
	SetCueLoop(id string, loop bool) bool
	SeekCue(id string, seconds float64) bool
	FadeInCue(id string, seconds float64) bool
	FadeOutCue(id string, seconds float64) bool
	CueInfo(id string) (mixer.Info, bool)
	ActiveCues() []mixer.Info

	StartCrossfadeWith(from, to string, seconds float64, curve crossfade.Curve) bool
	QueueCrossfadeWith(from, to string, seconds float64, curve crossfade.Curve) bool
	StopCrossfade() bool
	ClearCrossfadeQueue() bool
	CrossfadeProgress() float64
	IsCrossfading() bool
	DefaultCurve() crossfade.Curve
	DefaultDuration() float64
	SetCustomCurve(points []float64) bool

	SetMasterVolume(v float64)
}

// ErrScript wraps Lua compile and runtime errors.
var ErrScript = errors.New("show script")

// Runner executes show scripts. A Runner may run one script at a time.
type Runner struct {
	ctrl Controller
	log  *slog.Logger

	// dir resolves relative cue.load paths.
	dir string
}

// New returns a Runner driving ctrl.
func New(ctrl Controller, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{ctrl: ctrl, log: log}
}

// RunFile runs the script at path. Relative paths given to cue.load are
// resolved against the script's directory.
func (r *Runner) RunFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening script: %w", err)
	}
	defer f.Close()

	r.dir = filepath.Dir(path)
	defer func() { r.dir = "" }()

	return r.Run(ctx, filepath.Base(path), f)
}

// Run compiles and executes src. It returns when the script ends or ctx is
// done; in the latter case the error wraps ctx.Err().
func (r *Runner) Run(ctx context.Context, name string, src io.Reader) error {
	chunk, err := parse.Parse(src, name)
	if err != nil {
		return fmt.Errorf("%w: parse %s: %w", ErrScript, name, err)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return fmt.Errorf("%w: compile %s: %w", ErrScript, name, err)
	}

	L := r.newVM(ctx, name)
	defer L.Close()

	r.log.Info("show script started", "script", name)
	L.Push(L.NewFunctionFromProto(proto))
	if err := L.PCall(0, 0, nil); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			r.log.Info("show script cancelled", "script", name)
			return fmt.Errorf("%w: %s: %w", ErrScript, name, ctxErr)
		}
		return fmt.Errorf("%w: %s: %w", ErrScript, name, err)
	}
	r.log.Info("show script finished", "script", name)

	return nil
}

func (r *Runner) newVM(ctx context.Context, name string) *lua.LState {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:        true,
		CallStackSize:       128,
		RegistrySize:        1024,
		MinimizeStackMemory: true,
	})

	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, g := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(g, lua.LNil)
	}

	L.SetContext(ctx)
	r.inject(L, ctx, name)

	return L
}
