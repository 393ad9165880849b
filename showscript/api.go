// SPDX-License-Identifier: EPL-2.0

package showscript

import (
	"context"
	"path/filepath"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/ik5/cuemix/crossfade"
	"github.com/ik5/cuemix/mixer"
)

func (r *Runner) inject(L *lua.LState, ctx context.Context, script string) {
	c := r.ctrl

	cue := L.NewTable()
	for name, fn := range map[string]lua.LGFunction{
		"load":     r.loadFn,
		"unload":   idCall(c.UnloadCue),
		"start":    idCall(c.StartCue),
		"stop":     idCall(c.StopCue),
		"pause":    idCall(c.PauseCue),
		"resume":   idCall(c.ResumeCue),
		"volume":   idNumCall(c.SetCueVolume),
		"pan":      idNumCall(c.SetCuePan),
		"seek":     idNumCall(c.SeekCue),
		"fade_in":  idNumCall(c.FadeInCue),
		"fade_out": idNumCall(c.FadeOutCue),
		"loop":     r.loopFn,
		"info":     r.infoFn,
		"active":   r.activeFn,
	} {
		cue.RawSetString(name, L.NewFunction(fn))
	}
	L.SetGlobal("cue", cue)

	xfade := L.NewTable()
	for name, fn := range map[string]lua.LGFunction{
		"start":    r.crossfadeFn(c.StartCrossfadeWith),
		"queue":    r.crossfadeFn(c.QueueCrossfadeWith),
		"stop":     boolCall(c.StopCrossfade),
		"clear":    boolCall(c.ClearCrossfadeQueue),
		"progress": r.progressFn,
		"active":   boolCall(c.IsCrossfading),
		"custom":   r.customFn,
	} {
		xfade.RawSetString(name, L.NewFunction(fn))
	}
	L.SetGlobal("xfade", xfade)

	L.SetGlobal("master", L.NewFunction(r.masterFn))
	L.SetGlobal("wait", L.NewFunction(waitFn(ctx)))
	L.SetGlobal("log", L.NewFunction(r.logFn(script)))
}

// Argument helpers report false instead of raising on a type mismatch.

func argString(L *lua.LState, n int) (string, bool) {
	s, ok := L.Get(n).(lua.LString)
	return string(s), ok
}

func argNumber(L *lua.LState, n int) (float64, bool) {
	v, ok := L.Get(n).(lua.LNumber)
	return float64(v), ok
}

func pushBool(L *lua.LState, b bool) int {
	L.Push(lua.LBool(b))
	return 1
}

func boolCall(fn func() bool) lua.LGFunction {
	return func(L *lua.LState) int { return pushBool(L, fn()) }
}

func idCall(fn func(string) bool) lua.LGFunction {
	return func(L *lua.LState) int {
		id, ok := argString(L, 1)
		return pushBool(L, ok && fn(id))
	}
}

func idNumCall(fn func(string, float64) bool) lua.LGFunction {
	return func(L *lua.LState) int {
		id, ok := argString(L, 1)
		v, okv := argNumber(L, 2)
		return pushBool(L, ok && okv && fn(id, v))
	}
}

func (r *Runner) loadFn(L *lua.LState) int {
	id, ok := argString(L, 1)
	path, okp := argString(L, 2)
	if !ok || !okp {
		return pushBool(L, false)
	}
	if r.dir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(r.dir, path)
	}
	return pushBool(L, r.ctrl.LoadCue(id, path))
}

func (r *Runner) loopFn(L *lua.LState) int {
	id, ok := argString(L, 1)
	loop, okl := L.Get(2).(lua.LBool)
	return pushBool(L, ok && okl && r.ctrl.SetCueLoop(id, bool(loop)))
}

func infoTable(L *lua.LState, info mixer.Info) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LString(info.ID))
	t.RawSetString("source", lua.LString(info.Source))
	t.RawSetString("state", lua.LString(info.State.String()))
	t.RawSetString("duration", lua.LNumber(info.Duration))
	t.RawSetString("position", lua.LNumber(info.Position))
	t.RawSetString("volume", lua.LNumber(info.Volume))
	t.RawSetString("pan", lua.LNumber(info.Pan))
	t.RawSetString("loop", lua.LBool(info.Loop))
	return t
}

// info returns nil for an unknown cue.
func (r *Runner) infoFn(L *lua.LState) int {
	id, ok := argString(L, 1)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	info, found := r.ctrl.CueInfo(id)
	if !found {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(infoTable(L, info))
	return 1
}

// active returns an array of ids.
func (r *Runner) activeFn(L *lua.LState) int {
	t := L.NewTable()
	for _, info := range r.ctrl.ActiveCues() {
		t.Append(lua.LString(info.ID))
	}
	L.Push(t)
	return 1
}

// crossfadeFn handles (from, to [, seconds [, curve]]). A missing seconds
// uses the default duration. An unknown curve name fails the call.
func (r *Runner) crossfadeFn(fn func(from, to string, seconds float64, curve crossfade.Curve) bool) lua.LGFunction {
	return func(L *lua.LState) int {
		from, okf := argString(L, 1)
		to, okt := argString(L, 2)
		if !okf || !okt {
			return pushBool(L, false)
		}

		seconds := r.ctrl.DefaultDuration()
		if L.Get(3) != lua.LNil {
			v, ok := argNumber(L, 3)
			if !ok {
				return pushBool(L, false)
			}
			seconds = v
		}

		curve, ok := r.curveArg(L, 4)
		if !ok {
			return pushBool(L, false)
		}

		return pushBool(L, fn(from, to, seconds, curve))
	}
}

// curveArg reads a curve name or shape number at n, or the default curve
// when n is nil.
func (r *Runner) curveArg(L *lua.LState, n int) (crossfade.Curve, bool) {
	switch v := L.Get(n).(type) {
	case *lua.LNilType:
		return r.ctrl.DefaultCurve(), true
	case lua.LNumber:
		return crossfade.CurveFromParameter(float64(v)), true
	case lua.LString:
		c, err := crossfade.ParseCurve(string(v))
		if err != nil {
			r.log.Warn("show script: unknown crossfade curve", "curve", string(v))
			return c, false
		}
		return c, true
	default:
		return crossfade.EqualPower, false
	}
}

// customFn installs a custom curve from an array of numbers.
func (r *Runner) customFn(L *lua.LState) int {
	t, ok := L.Get(1).(*lua.LTable)
	if !ok {
		return pushBool(L, false)
	}

	points := make([]float64, 0, t.Len())
	for i := 1; i <= t.Len(); i++ {
		v, ok := t.RawGetInt(i).(lua.LNumber)
		if !ok {
			return pushBool(L, false)
		}
		points = append(points, float64(v))
	}

	return pushBool(L, r.ctrl.SetCustomCurve(points))
}

func (r *Runner) progressFn(L *lua.LState) int {
	L.Push(lua.LNumber(r.ctrl.CrossfadeProgress()))
	return 1
}

func (r *Runner) masterFn(L *lua.LState) int {
	v, ok := argNumber(L, 1)
	if !ok {
		return pushBool(L, false)
	}
	r.ctrl.SetMasterVolume(v)
	return pushBool(L, true)
}

// waitFn sleeps for the given seconds. It returns false early when ctx is
// done; the VM then stops at its next instruction.
func waitFn(ctx context.Context) lua.LGFunction {
	return func(L *lua.LState) int {
		seconds, ok := argNumber(L, 1)
		if !ok || seconds < 0 {
			return pushBool(L, false)
		}

		t := time.NewTimer(time.Duration(seconds * float64(time.Second)))
		defer t.Stop()
		select {
		case <-ctx.Done():
			return pushBool(L, false)
		case <-t.C:
			return pushBool(L, true)
		}
	}
}

func (r *Runner) logFn(script string) lua.LGFunction {
	return func(L *lua.LState) int {
		msg := L.ToStringMeta(L.Get(1)).String()
		r.log.Info(msg, "script", script)
		return 0
	}
}
