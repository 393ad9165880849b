// SPDX-License-Identifier: EPL-2.0

// Package cuemix is a real-time cue playback engine for live show control.
//
// An Engine mixes any number of loaded cues into a planar float32 output,
// with per-cue volume, pan, loop, seek and fades, and sample-accurate
// crossfades between cues. One Engine serves one audio session; there is no
// package-level state.
//
// # Threading
//
// Two kinds of goroutine use an Engine:
//
//   - Control goroutines call the cue and crossfade methods (StartCue,
//     StartCrossfade, ...). These validate their arguments, then push a
//     fixed-size command onto a lock-free queue and return immediately.
//   - The render goroutine, usually the host audio callback, calls Render.
//     Render never blocks, locks or allocates. It drains the queue, mixes
//     the cues and updates the telemetry sampler.
//
// Loading and unloading cues decodes files and edits the cue catalog on the
// calling goroutine; the renderer picks up the new catalog at the start of
// its next callback.
//
// # Quick Start
//
//	eng, err := cuemix.New(48000, 2, cuemix.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	if !eng.LoadCue("intro", "cues/intro.wav") {
//	    return eng.LastError()
//	}
//	eng.StartCue("intro")
//
//	// in the audio callback
//	eng.Render(out, frames)
//
// # Failure Model
//
// Control methods report success as a bool and never panic on bad input.
// Unknown cue ids, decode failures and a full command queue return false;
// LastError describes the most recent failure. Out-of-range levels are
// clamped and fade lengths are floored to one sample.
package cuemix
